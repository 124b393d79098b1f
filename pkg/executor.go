package calversion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate mockgen -source=executor.go -destination=mock/executor_mock.go -package=mock

// Executor runs an external command to completion and captures its output.
type Executor interface {
	Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error)
}

// RunOpts configures a single command invocation.
type RunOpts struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the process environment (KEY=VALUE).
	Env []string
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s failed with exit code %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ", detail: " + e.Stderr
	}
	return msg
}

// LocalExecutor runs commands on the local system.
type LocalExecutor struct {
	log *zap.SugaredLogger
}

// NewLocalExecutor returns an executor that echoes each command at debug level.
func NewLocalExecutor(log *zap.SugaredLogger) *LocalExecutor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LocalExecutor{log: log}
}

// Run executes name with args. A non-zero exit status is returned as a
// *CommandError alongside the captured Result.
func (e *LocalExecutor) Run(ctx context.Context, name string, args []string, opts RunOpts) (Result, error) {
	if name == "" {
		return Result{}, errors.New("command cannot be empty")
	}

	e.log.Debugf("[command]%s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &CommandError{
			Name:     name,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
		}
	}
	res.ExitCode = -1
	return res, errors.Wrapf(err, "failed to start %s", name)
}
