// Package fetch retrieves remote input references through an external
// download transport (curl or wget).
package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fieldsolve/internal/proc"
)

// Transport selects the external download tool.
type Transport string

const (
	TransportCurl Transport = "curl"
	TransportWget Transport = "wget"
)

// IsRemote reports whether ref should be downloaded: it is not an
// existing local file and carries a recognized scheme prefix. Only
// http:// and ftp:// are recognized, case-insensitively.
func IsRemote(ref string) bool {
	if _, err := os.Stat(ref); err == nil {
		return false
	}
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "ftp://")
}

// Download fetches ref into dest using the configured transport. The
// returned Result carries the interruption flag; any failure here is
// fatal to the batch, so the error message distinguishes a cancelled
// download from a failed one.
func Download(ctx context.Context, r *proc.Runner, ref, dest string, transport Transport, verbose bool) (proc.Result, error) {
	cmd := proc.NewCommand()
	switch transport {
	case TransportWget:
		if err := r.AddExecutable(cmd, "wget"); err != nil {
			return proc.Result{}, err
		}
		if !verbose {
			cmd.Add("--quiet")
		}
		cmd.Add("-O").AddEscaped(dest)
	default:
		if err := r.AddExecutable(cmd, "curl"); err != nil {
			return proc.Result{}, err
		}
		if !verbose {
			cmd.Add("--silent")
		}
		cmd.Add("--output").AddEscaped(dest)
	}
	cmd.AddEscaped(ref)

	res, err := r.Run(ctx, "retrieve", cmd)
	if err != nil {
		return res, err
	}
	if res.Interrupted {
		return res, fmt.Errorf("%s command was cancelled", transport)
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%s command failed with exit status %d", transport, res.ExitCode)
	}
	return res, nil
}
