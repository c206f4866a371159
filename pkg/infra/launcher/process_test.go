package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixkryption/server/pkg/errors"
)

type staticConfig []string

func (c staticConfig) Environ() []string { return c }

const helperEnv = "LAUNCHER_WANT_HELPER_PROCESS"

// TestHelperProcess is not a real test. It is the child body for the
// tests below, selected by the mode argument after "--".
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "ready":
		if os.Getenv("APP_FIXVERSION") != "4.4" {
			fmt.Fprintln(os.Stderr, "configuration not propagated")
			os.Exit(4)
		}
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGTERM)
		if err := NotifyReady(ReadyFD); err != nil {
			os.Exit(5)
		}
		<-sig
		os.Exit(0)
	case "exit":
		os.Exit(3)
	case "hang":
		time.Sleep(time.Minute)
	case "garbage":
		f := os.NewFile(ReadyFD, "ready")
		_, _ = io.WriteString(f, "NOPE\n")
		time.Sleep(time.Minute)
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
		_ = NotifyReady(ReadyFD)
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func helperLauncher(mode string, opts ...ProcessOption) *ProcessLauncher {
	base := []ProcessOption{
		WithExecutable(os.Args[0]),
		WithArgs("-test.run=TestHelperProcess", "--", mode),
		WithOutput(io.Discard, io.Discard),
		WithReadyTimeout(10 * time.Second),
	}
	return NewProcessLauncher("helper-"+mode, append(base, opts...)...)
}

var helperConfig = staticConfig{helperEnv + "=1", "APP_DEBUG=false", "APP_FIXVERSION=4.4"}

func TestProcessLauncherReady(t *testing.T) {
	h, err := helperLauncher("ready").Launch(context.Background(), helperConfig)
	require.NoError(t, err)

	assert.Equal(t, "helper-ready", h.Name())
	assert.Greater(t, h.ID(), 0)
	assert.NotEqual(t, os.Getpid(), h.ID())

	select {
	case <-h.Done():
		t.Fatal("child exited right after reporting ready")
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.Stop(ctx))

	<-h.Done()
	assert.NoError(t, h.Err(), "a requested stop is not an unexpected exit")
}

func TestProcessLauncherEarlyExit(t *testing.T) {
	h, err := helperLauncher("exit").Launch(context.Background(), helperConfig)
	require.Error(t, err)
	assert.Nil(t, h)

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "helper-exit", se.Subsystem)
	assert.True(t, errors.Is(err, errors.ErrSubsystemStartup))
	assert.True(t, errors.Is(err, errors.ErrSubsystemExited))
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestProcessLauncherReadyTimeout(t *testing.T) {
	start := time.Now()
	_, err := helperLauncher("hang", WithReadyTimeout(300*time.Millisecond)).
		Launch(context.Background(), helperConfig)
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrSubsystemReadyTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProcessLauncherUnexpectedReadiness(t *testing.T) {
	_, err := helperLauncher("garbage").Launch(context.Background(), helperConfig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"NOPE"`)
}

func TestProcessLauncherContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := helperLauncher("hang").Launch(ctx, helperConfig)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessLauncherMissingExecutable(t *testing.T) {
	l := NewProcessLauncher("missing", WithExecutable("/nonexistent/nixkryption"))
	_, err := l.Launch(context.Background(), helperConfig)

	var se *StartupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing", se.Subsystem)
}

func TestProcessStopEscalatesToKill(t *testing.T) {
	h, err := helperLauncher("ignore-term").Launch(context.Background(), helperConfig)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = h.Stop(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child still running after kill")
	}
}

func TestDefaultArgs(t *testing.T) {
	l := NewProcessLauncher("order-management")
	assert.Equal(t, "subsystem order-management --ready-fd 3", strings.Join(l.args, " "))
	assert.Equal(t, DefaultReadyTimeout, l.readyTimeout)
}

func TestNotifyReadyWithoutDescriptor(t *testing.T) {
	assert.NoError(t, NotifyReady(0))
	assert.NoError(t, NotifyReady(-1))
}

func TestNotifyReadyWritesLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	fd, err := syscall.Dup(int(w.Fd()))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, NotifyReady(fd))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, ReadyLine+"\n", string(data))
}
