// Package cli runs the external interactive Ring login tool as a child
// process, exposing its streams to the credential broker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"ringbridge/internal/domain/service"
)

// shellLauncher starts the configured login command through the platform shell.
type shellLauncher struct {
	command string
}

// NewShellLauncher creates a LoginLauncher for the given shell command, e.g.
// "npx -p ring-client-api ring-auth-cli".
func NewShellLauncher(command string) service.LoginLauncher {
	return &shellLauncher{command: command}
}

// Launch starts the login tool with piped stdin/stdout/stderr. The process is
// killed when ctx is cancelled.
func (l *shellLauncher) Launch(ctx context.Context) (service.LoginProcess, error) {
	shell, arg := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, arg = "cmd", "/c"
	}

	cmd := exec.CommandContext(ctx, shell, arg, l.command)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start login tool: %w", err)
	}

	return &childProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// childProcess wraps a started exec.Cmd as a service.LoginProcess.
type childProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *childProcess) Stdin() io.Writer  { return p.stdin }
func (p *childProcess) Stdout() io.Reader { return p.stdout }
func (p *childProcess) Stderr() io.Reader { return p.stderr }

func (p *childProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *childProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
