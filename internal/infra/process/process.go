// Package process launches external audio players as child processes.
package process

import (
	"context"
	"os/exec"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Process is a running player process.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	stopOnce sync.Once
}

// start spawns name with args and watches it until it exits.
func start(name string, args ...string) (*Process, error) {
	cmd := exec.Command(name, args...)
	// Output is discarded so the player can't block on a full pipe
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", name)
	}
	zlog.Debug().Msgf("started player process: pid=%d cmd=%s args=%v", cmd.Process.Pid, name, args)

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error once Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Pid returns the operating system process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stop kills the process and waits until it has exited or ctx is done.
func (p *Process) Stop(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	var killErr error
	p.stopOnce.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil {
			killErr = err
		}
	})

	select {
	case <-p.done:
		zlog.Debug().Msgf("player process stopped: pid=%d", p.Pid())
		return nil
	case <-ctx.Done():
		if killErr != nil {
			return errors.Wrap(killErr, "failed to kill player process")
		}
		return errors.Wrap(ctx.Err(), "player process did not exit")
	}
}
