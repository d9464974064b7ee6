package dispatch

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/creack/pty"

	. "github.com/voxctl/voxctl/internal/logging"
	"github.com/voxctl/voxctl/internal/registry"
)

// PtyTarget is a CLI process running under a pseudo-terminal we own.
// Writes go to the pty master and arrive at the process as keyboard
// input; process output is drained to our stdout so the user still sees
// the CLI's screen.
type PtyTarget struct {
	cmd  *exec.Cmd
	ptmx *os.File

	closed   int32
	waitOnce sync.Once
	waitErr  error
	done     chan struct{}

	// onExit, if set, fires once when the child exits on its own.
	onExit func(err error)
}

// LaunchCLI starts the given CLI under a fresh pty. The descriptor must
// be a detected entry from the registry.
func LaunchCLI(desc *registry.CLIDescriptor, onExit func(err error)) (*PtyTarget, error) {
	if desc == nil || !desc.Detected {
		return nil, fmt.Errorf("%w: cli not detected on this host", ErrTargetUnavailable)
	}

	cmd := exec.Command(desc.Executable)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("dispatch: start %s under pty: %w", desc.Executable, err)
	}

	t := &PtyTarget{
		cmd:    cmd,
		ptmx:   ptmx,
		done:   make(chan struct{}),
		onExit: onExit,
	}
	go t.drain()
	go t.reap()

	L_info("target started", "cli", desc.ID, "pid", cmd.Process.Pid)
	return t, nil
}

// LaunchInTerminal spawns the CLI inside a separate terminal emulator
// window using the descriptor's argv template. The spawned window is not
// controllable through a pty we own, so this returns no Target; it exists
// for the hands-off "open it for me" flow.
func LaunchInTerminal(term *registry.TerminalDescriptor, cli *registry.CLIDescriptor) error {
	if term == nil || !term.Detected {
		return fmt.Errorf("%w: terminal not detected on this host", ErrTargetUnavailable)
	}
	if cli == nil || !cli.Detected {
		return fmt.Errorf("%w: cli not detected on this host", ErrTargetUnavailable)
	}

	if len(term.LaunchCommand) == 0 {
		return fmt.Errorf("%w: terminal %s has no launch template", ErrUnsupportedAction, term.ID)
	}
	argv := append(append([]string{}, term.LaunchCommand...), cli.Executable)

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("dispatch: launch terminal %s: %w", term.ID, err)
	}
	go cmd.Wait()

	L_info("terminal launched", "terminal", term.ID, "cli", cli.ID)
	return nil
}

// drain copies the child's screen output through to our stdout.
func (t *PtyTarget) drain() {
	_, err := io.Copy(os.Stdout, t.ptmx)
	if err != nil && atomic.LoadInt32(&t.closed) == 0 {
		// EIO from the master side means the slave closed: normal exit.
		L_debug("pty drain ended", "error", err)
	}
}

// reap waits for the child and flips the closed flag exactly once.
func (t *PtyTarget) reap() {
	err := t.cmd.Wait()
	first := atomic.CompareAndSwapInt32(&t.closed, 0, 1)
	t.waitOnce.Do(func() {
		t.waitErr = err
		close(t.done)
	})
	if first && t.onExit != nil {
		t.onExit(err)
	}
}

// Write sends raw bytes to the child's keyboard.
func (t *PtyTarget) Write(p []byte) (int, error) {
	if atomic.LoadInt32(&t.closed) == 1 {
		return 0, ErrTargetClosed
	}
	n, err := t.ptmx.Write(p)
	if err != nil && atomic.LoadInt32(&t.closed) == 1 {
		return n, ErrTargetClosed
	}
	return n, err
}

// Alive reports whether the child is still running.
func (t *PtyTarget) Alive() bool {
	return atomic.LoadInt32(&t.closed) == 0
}

// Close terminates the child and releases the pty. Safe to call twice.
func (t *PtyTarget) Close() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	err := t.ptmx.Close()
	<-t.done
	return err
}

// Wait blocks until the child exits and returns its exit error.
func (t *PtyTarget) Wait() error {
	<-t.done
	return t.waitErr
}

// Resize propagates a window size change to the pty.
func (t *PtyTarget) Resize(rows, cols uint16) error {
	return pty.Setsize(t.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}
