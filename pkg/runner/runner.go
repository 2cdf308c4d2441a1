package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"golang.org/x/time/rate"
)

// exitCodeNotFound mirrors the shell convention for an unreachable binary.
const exitCodeNotFound = 127

// Result captures the outcome of one external command invocation.
// A non-zero exit or missing binary is represented here, never as a
// returned error; the caller decides how to report it.
type Result struct {
	// Command is the full command line, used in artifact headers.
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Failed reports whether the command exited non-zero or never ran.
func (r *Result) Failed() bool {
	return r.ExitCode != 0
}

// Output returns the trimmed stdout text.
func (r *Result) Output() string {
	return strings.TrimSpace(string(r.Stdout))
}

// ErrorDetail returns the trimmed stderr text, for failure reporting.
func (r *Result) ErrorDetail() string {
	return strings.TrimSpace(string(r.Stderr))
}

// Interface runs one external diagnostic command synchronously.
// Implementations must not return command failure through the Result
// only; the traversal engine depends on that contract to keep going
// after individual fetch failures.
type Interface interface {
	Run(ctx context.Context, args ...string) *Result
}

// OpenStack runs subcommands of the openstack CLI client.
type OpenStack struct {
	// Binary overrides the client binary name, default "openstack".
	Binary string
	// Insecure bypasses SSL verification on every invocation.
	Insecure bool
	// Limiter optionally throttles invocations to avoid hammering the
	// control plane APIs. Nil means no throttle.
	Limiter *rate.Limiter
}

// Run executes one openstack subcommand and captures its output.
// It blocks until the subprocess exits.
func (o *OpenStack) Run(ctx context.Context, args ...string) *Result {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return &Result{
				Command:  o.commandLine(args),
				ExitCode: exitCodeNotFound,
				Stderr:   []byte(err.Error()),
			}
		}
	}

	binary := o.Binary
	if binary == "" {
		binary = "openstack"
	}
	argv := injectGlobalFlags(args, o.Insecure)
	cmdLine := binary + " " + strings.Join(argv, " ")
	slog.Info("running command", slog.String("cmd", cmdLine))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, argv...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := &Result{Command: cmdLine}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Binary missing or not startable.
			res.ExitCode = exitCodeNotFound
			stderr.WriteString(err.Error())
		}
		slog.Warn("command failed",
			slog.String("cmd", cmdLine),
			slog.Int("exit_code", res.ExitCode),
			slog.String("stderr", strings.TrimSpace(stderr.String())))
	}
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	return res
}

func (o *OpenStack) commandLine(args []string) string {
	binary := o.Binary
	if binary == "" {
		binary = "openstack"
	}
	return binary + " " + strings.Join(args, " ")
}

// injectGlobalFlags adds --insecure when requested and widens table
// output on list/show subcommands unless a machine format was asked for.
func injectGlobalFlags(args []string, insecure bool) []string {
	argv := slices.Clone(args)

	if insecure && !slices.Contains(argv, "--insecure") {
		argv = append([]string{"--insecure"}, argv...)
	}

	isListOrShow := slices.Contains(argv, "list") || slices.Contains(argv, "show")
	isFormatted := slices.Contains(argv, "-f") || slices.Contains(argv, "--format")
	if isListOrShow && !isFormatted && !slices.Contains(argv, "--max-width") {
		argv = append(argv, "--max-width", "170")
	}
	return argv
}
