package command

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Runner executes the bundler CLI.
type Runner interface {
	// Run executes name and returns its captured output.
	Run(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, err error)
	// Start launches a long running process streaming its output to w.
	Start(ctx context.Context, dir, name string, args []string, w io.Writer) (Process, error)
}

// Process is a running bundler.
type Process interface {
	Stop() error
	Wait() error
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- the executable comes from project configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Start implements Runner.
func (ExecRunner) Start(ctx context.Context, dir, name string, args []string, w io.Writer) (Process, error) {
	// #nosec G204 -- the executable comes from project configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd}, nil
}

type execProcess struct{ cmd *exec.Cmd }

func (p execProcess) Stop() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p execProcess) Wait() error { return p.cmd.Wait() }
