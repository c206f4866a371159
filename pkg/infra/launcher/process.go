package launcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"

	"github.com/nixkryption/server/pkg/errors"
)

const (
	// ReadyFD is the descriptor number of the readiness pipe in the child.
	ReadyFD = 3

	// ReadyLine is what a child writes to the readiness pipe once serving.
	ReadyLine = "READY"

	// DefaultReadyTimeout bounds the wait for ReadyLine.
	DefaultReadyTimeout = 5 * time.Second

	// exitGrace is how long a child that closed its readiness pipe without
	// reporting ready is given to exit before it is killed.
	exitGrace = time.Second
)

// ProcessLauncher starts a subsystem as a child process and waits for it to
// report readiness on an inherited pipe. The handle ID is the child's pid.
type ProcessLauncher struct {
	name         string
	path         string
	args         []string
	readyTimeout time.Duration
	stdout       io.Writer
	stderr       io.Writer
}

// ProcessOption configures a ProcessLauncher.
type ProcessOption func(*ProcessLauncher)

// WithExecutable sets the binary to run. Defaults to os.Executable().
func WithExecutable(path string) ProcessOption {
	return func(l *ProcessLauncher) { l.path = path }
}

// WithArgs replaces the default arguments
// "subsystem <name> --ready-fd 3".
func WithArgs(args ...string) ProcessOption {
	return func(l *ProcessLauncher) { l.args = args }
}

// WithReadyTimeout bounds the wait for readiness.
func WithReadyTimeout(d time.Duration) ProcessOption {
	return func(l *ProcessLauncher) {
		if d > 0 {
			l.readyTimeout = d
		}
	}
}

// WithOutput redirects the child's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) ProcessOption {
	return func(l *ProcessLauncher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// NewProcessLauncher creates a launcher for the named subsystem.
func NewProcessLauncher(name string, opts ...ProcessOption) *ProcessLauncher {
	l := &ProcessLauncher{
		name:         name,
		args:         []string{"subsystem", name, "--ready-fd", strconv.Itoa(ReadyFD)},
		readyTimeout: DefaultReadyTimeout,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the child and blocks until it reports ready, exits, times
// out, or ctx ends. On any failure the child is not left running.
func (l *ProcessLauncher) Launch(ctx context.Context, cfg Config) (Handle, error) {
	path := l.path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, NewStartupError(l.name, err)
		}
		path = exe
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, NewStartupError(l.name, fmt.Errorf("create readiness pipe: %w", err))
	}
	defer r.Close()

	cmd := exec.Command(path, l.args...)
	cmd.Env = append(os.Environ(), cfg.Environ()...)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.ExtraFiles = []*os.File{w}

	if err := cmd.Start(); err != nil {
		_ = w.Close()
		return nil, NewStartupError(l.name, err)
	}
	// Only the child holds the write end now, so EOF means it closed or exited.
	_ = w.Close()

	h := newProcessHandle(l.name, cmd)
	logger.Debugw("subsystem process started", "subsystem", l.name, "pid", h.ID())

	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(r).ReadString('\n')
		lines <- strings.TrimSpace(line)
	}()

	timer := time.NewTimer(l.readyTimeout)
	defer timer.Stop()

	select {
	case line := <-lines:
		if line == ReadyLine {
			return h, nil
		}
		return nil, NewStartupError(l.name, h.abort(line))
	case <-timer.C:
		h.kill()
		return nil, NewStartupError(l.name,
			errors.ErrSubsystemReadyTimeout.WithMessagef("no readiness within %s", l.readyTimeout))
	case <-ctx.Done():
		h.kill()
		return nil, NewStartupError(l.name, ctx.Err())
	}
}

// processHandle tracks a child started by ProcessLauncher.
type processHandle struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	err      error
	stopping bool
}

func newProcessHandle(name string, cmd *exec.Cmd) *processHandle {
	h := &processHandle{
		name: name,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h
}

func (h *processHandle) Name() string { return h.name }

func (h *processHandle) ID() int { return h.cmd.Process.Pid }

func (h *processHandle) Done() <-chan struct{} { return h.done }

// Err returns nil while running, or when the exit was requested by Stop.
func (h *processHandle) Err() error {
	select {
	case <-h.done:
	default:
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopping {
		return nil
	}
	if h.err == nil {
		return errors.ErrSubsystemExited.WithMessagef("subsystem %q exited", h.name)
	}
	return errors.ErrSubsystemExited.WithCause(h.err)
}

// Stop sends SIGTERM and waits; SIGKILL follows if ctx ends first.
func (h *processHandle) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.stopping = true
	h.mu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
	}

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Warnw("failed to signal subsystem", "subsystem", h.name, "pid", h.ID(), "error", err)
	}

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		h.kill()
		return fmt.Errorf("subsystem %q did not stop gracefully: %w", h.name, ctx.Err())
	}
}

// abort handles a readiness pipe that closed, or carried something other
// than ReadyLine. It returns the cause to report.
func (h *processHandle) abort(line string) error {
	timer := time.NewTimer(exitGrace)
	defer timer.Stop()

	select {
	case <-h.done:
	case <-timer.C:
		h.kill()
	}

	h.mu.Lock()
	exitErr := h.err
	h.mu.Unlock()

	if line != "" {
		return fmt.Errorf("unexpected readiness message %q", line)
	}
	if exitErr == nil {
		return errors.ErrSubsystemExited.WithMessage("exited before reporting ready")
	}
	return errors.ErrSubsystemExited.WithCause(exitErr)
}

func (h *processHandle) kill() {
	h.mu.Lock()
	h.stopping = true
	h.mu.Unlock()
	_ = h.cmd.Process.Kill()
	<-h.done
}

// NotifyReady writes ReadyLine to the descriptor fd and closes it. A
// non-positive fd means no supervisor is listening and is not an error.
func NotifyReady(fd int) error {
	if fd <= 0 {
		return nil
	}
	f := os.NewFile(uintptr(fd), "ready")
	if f == nil {
		return fmt.Errorf("invalid readiness descriptor %d", fd)
	}
	defer f.Close()
	if _, err := io.WriteString(f, ReadyLine+"\n"); err != nil {
		return fmt.Errorf("write readiness: %w", err)
	}
	return nil
}
