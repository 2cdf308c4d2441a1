package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pcderrors "github.com/platform9/pcddebug/pkg/errors"
)

const headerRule = "----------------------------------------------------------------------"

// Writer persists collected artifacts under a run's output root.
// Paths are deterministic: the same (subdir, name) pair always maps to
// the same file, and repeated writes overwrite silently. Deduplication
// is the traversal engine's job, not the writer's.
type Writer struct {
	root string
}

// NewWriter creates a writer rooted at the given output directory.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Root returns the output root directory.
func (w *Writer) Root() string {
	return w.root
}

// Write persists one text artifact as <root>/<subdir>/<name>.txt,
// prepending the command line that produced the content. Intermediate
// directories are created as needed.
func (w *Writer) Write(subdir, name string, content []byte, command string) (string, error) {
	path := filepath.Join(w.root, subdir, name+".txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", pcderrors.Wrap(pcderrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot create directory for %s", path), err)
	}

	var sb strings.Builder
	if command != "" {
		sb.WriteString("# Command: ")
		sb.WriteString(command)
		sb.WriteString("\n# ")
		sb.WriteString(headerRule)
		sb.WriteString("\n\n")
	}
	sb.Write(content)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", pcderrors.Wrap(pcderrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot write artifact %s", path), err)
	}
	return path, nil
}

// Create opens a file for streaming writes, e.g. the database dump that
// is too large to buffer. The caller owns the returned file.
func (w *Writer) Create(subdir, name string) (*os.File, error) {
	path := filepath.Join(w.root, subdir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, pcderrors.Wrap(pcderrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot create directory for %s", path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, pcderrors.Wrap(pcderrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot create %s", path), err)
	}
	return f, nil
}
