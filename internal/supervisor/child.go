package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/chute-dev/chute/pkg/log"
)

// child is one spawned process role. Its exit is observed exactly once
// by a monitor goroutine, which records the status and reports it on
// the supervisor's exit channel.
type child struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
	code int
	err  error
}

// exitEvent is delivered on the supervisor's exit channel when a child
// terminates for any reason.
type exitEvent struct {
	name string
	code int
	err  error
}

// ChildExitError reports a child process that terminated with a
// failure status the supervisor should propagate.
type ChildExitError struct {
	Name string
	Code int
}

func (e *ChildExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// startChild spawns one role as a process running this same binary.
// Children write straight to the supervisor's stdout/stderr so the
// pipeline's log lines interleave on one console.
func (s *Supervisor) startChild(name string) (*child, error) {
	args := append(append([]string{}, s.baseArgs...), name)
	cmd := exec.Command(s.execPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(s.childEnv(), s.extraEnv...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	c := &child{name: name, cmd: cmd, done: make(chan struct{})}
	s.logger.Info("child started", log.Str("child", name), log.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		c.code = exitCode(err)
		c.err = err
		close(c.done)
		s.exits <- exitEvent{name: c.name, code: c.code, err: err}
	}()
	return c, nil
}

// exitCode maps a Wait error to a process exit status. A signal-killed
// child reports -1, matching os.ProcessState.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// exited reports whether the child has been reaped.
func (c *child) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// signal delivers sig to a still-running child.
func (c *child) signal(sig os.Signal) error {
	if c == nil || c.exited() {
		return nil
	}
	return c.cmd.Process.Signal(sig)
}

// stop terminates the child cooperatively: SIGTERM, then SIGKILL once
// grace elapses. It returns the child's exit code.
func (s *Supervisor) stop(c *child, grace time.Duration) int {
	if c == nil {
		return 0
	}
	if c.exited() {
		return c.code
	}
	if err := c.signal(syscall.SIGTERM); err != nil {
		s.logger.Warn("terminate child", log.Str("child", c.name), log.Err(err))
	}
	select {
	case <-c.done:
	case <-time.After(grace):
		s.logger.Warn("child ignored SIGTERM, killing", log.Str("child", c.name))
		_ = c.cmd.Process.Kill()
		<-c.done
	}
	return c.code
}

// await blocks until the child exits or the timeout lapses. The bool
// reports whether it exited in time.
func (c *child) await(timeout time.Duration) (int, bool) {
	if c == nil {
		return 0, true
	}
	select {
	case <-c.done:
		return c.code, true
	case <-time.After(timeout):
		return 0, false
	}
}
