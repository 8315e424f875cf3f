package core

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLauncher() (*Launcher, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	l := NewLauncher(zerolog.Nop(), strings.NewReader(""), &stdout, &stderr)
	return l, &stdout, &stderr
}

func TestLauncherRun(t *testing.T) {
	l, stdout, _ := testLauncher()

	status, err := l.Run([]string{"echo", "hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", stdout.String())
}

func TestLauncherRun_exitStatus(t *testing.T) {
	l, _, _ := testLauncher()

	status, err := l.Run([]string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, status)
}

func TestLauncherRun_notFound(t *testing.T) {
	l, _, _ := testLauncher()

	status, err := l.Run([]string{"definitely-not-a-real-command"})

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 127, status)
	assert.Equal(t, "definitely-not-a-real-command: command not found", lookupErr.Error())
}

func TestLauncherRun_inheritsWorkingDirectory(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(orig) })

	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	l, stdout, _ := testLauncher()
	status, err := l.Run([]string{"pwd"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want+"\n", stdout.String())
}

func TestLauncherRun_interruptForwardedToChild(t *testing.T) {
	l, _, _ := testLauncher()

	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, err := l.Run([]string{"sleep", "30"})
		done <- result{status, err}
	}()

	// Wait for the child to start.
	deadline := time.Now().Add(5 * time.Second)
	for l.outstanding() == nil {
		if time.Now().After(deadline) {
			t.Fatal("child never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	l.Signal(os.Interrupt)

	select {
	case res := <-done:
		// The wait completed normally; the child died of the forwarded
		// signal.
		require.NoError(t, res.err)
		assert.Equal(t, 128+int(syscall.SIGINT), res.status)
	case <-time.After(5 * time.Second):
		t.Fatal("wait on child was abandoned")
	}
	assert.Nil(t, l.outstanding())
}

func TestLauncherRun_notFoundKeepsControllerArmed(t *testing.T) {
	l, _, _ := testLauncher()
	ctrl := NewInterruptController(zerolog.Nop(), nil, nil)
	t.Cleanup(func() { ctrl.Close() })
	l.guard = ctrl

	ctrl.Arm()
	_, err := l.Run([]string{"definitely-not-a-real-command"})
	require.Error(t, err)

	// No child ever existed, so an interrupt here must still reset the
	// prompt rather than vanish into a nil forward.
	assert.True(t, ctrl.Armed())
}

func TestLauncherRun_disarmsWhileChildRuns(t *testing.T) {
	l, _, _ := testLauncher()
	ctrl := NewInterruptController(zerolog.Nop(), nil, nil)
	t.Cleanup(func() { ctrl.Close() })
	l.guard = ctrl

	ctrl.Arm()
	status, err := l.Run([]string{"true"})
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	// The launcher leaves the controller disarmed; rearming belongs to
	// the main loop.
	assert.False(t, ctrl.Armed())
}

func TestLauncherSignal_noChild(t *testing.T) {
	l, _, _ := testLauncher()

	// Nothing outstanding: forwarding is a no-op.
	l.Signal(os.Interrupt)
}
