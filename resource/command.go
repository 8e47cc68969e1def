package resource

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
)

// DefaultShell runs POSTed commands
const DefaultShell = "/bin/sh"

// Runner executes a command line
type Runner interface {
	// Run returns the command's standard output with CRLF line endings
	// Fails with ResourceErrorExecutionFailure on start failure or non-zero exit
	Run(command string) ([]byte, error)
}

// ShellRunner runs commands through a shell in Dir
type ShellRunner struct {
	Shell string
	Dir   string
}

// NewShellRunner creates a Runner using DefaultShell in dir
func NewShellRunner(dir string) *ShellRunner {
	return &ShellRunner{Shell: DefaultShell, Dir: dir}
}

// Run executes command with "sh -c"
func (r *ShellRunner) Run(command string) ([]byte, error) {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.Command(shell, "-c", command)
	cmd.Dir = r.Dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return nil, errors.NewResourceError(
				errors.ResourceErrorExecutionFailure,
				fmt.Sprintf("%q exited with %d: %s", command, exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr))),
				err,
			)
		}
		return nil, errors.NewResourceError(
			errors.ResourceErrorExecutionFailure,
			fmt.Sprintf("%q could not be started", command),
			err,
		)
	}

	return protocol.NormalizeLineEndings(out), nil
}
