package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	pcderrors "github.com/platform9/pcddebug/pkg/errors"
	"github.com/platform9/pcddebug/pkg/runner"
)

// requiredAuthEnvs are the credentials the openstack client needs; they
// normally come from sourcing an RC file.
var requiredAuthEnvs = []string{"OS_AUTH_URL", "OS_USERNAME", "OS_PROJECT_NAME"}

// CheckAuth validates that the environment is authenticated against the
// control plane before any collection starts. This is the only failure
// class that aborts a run outright.
func CheckAuth(ctx context.Context, r runner.Interface) error {
	slog.Info("checking control-plane authentication")

	var missing []string
	for _, env := range requiredAuthEnvs {
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return pcderrors.NewWithContext(pcderrors.ErrCodeUnauthorized,
			fmt.Sprintf("missing environment variables: %s (source your RC file)",
				strings.Join(missing, ", ")),
			map[string]any{"missing": missing})
	}

	res := r.Run(ctx, "token", "issue")
	if res.Failed() {
		return pcderrors.NewWithContext(pcderrors.ErrCodeUnauthorized,
			"unable to authenticate with the control plane",
			map[string]any{"stderr": res.ErrorDetail()})
	}

	slog.Info("authentication validated")
	return nil
}
