package supervisor

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeHandle struct {
	pid      int
	exitCh   chan ExitResult
	signals  chan os.Signal
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, exitCh: make(chan ExitResult, 1), signals: make(chan os.Signal, 4)}
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Signal(sig os.Signal) error {
	select {
	case h.signals <- sig:
	default:
	}
	if sig == syscall.SIGKILL || sig == syscall.SIGTERM {
		select {
		case h.exitCh <- ExitResult{Code: 0, Signal: sig}:
		default:
		}
	}
	return nil
}

func (h *fakeHandle) Wait() (ExitResult, error) {
	return <-h.exitCh, nil
}

type fakeLauncher struct {
	handles map[string]*fakeHandle
	nextPID int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{handles: make(map[string]*fakeHandle), nextPID: 1000}
}

func (l *fakeLauncher) Launch(_ context.Context, spec LaunchSpec) (Handle, error) {
	l.nextPID++
	h := newFakeHandle(l.nextPID)
	l.handles[spec.TaskID] = h
	return h, nil
}

func TestSpawnTracksRunningChild(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher()
	sup := New(launcher)

	pid, startedAt, err := sup.Spawn(context.Background(), LaunchSpec{TaskID: "t1"})
	require.NoError(t, err)
	assert.NotZero(t, pid)
	assert.False(t, startedAt.IsZero())
	assert.Equal(t, 1, sup.Count())
	assert.Contains(t, sup.Running(), "t1")

	launcher.handles["t1"].exitCh <- ExitResult{Code: 0}

	select {
	case ev := <-sup.Exits():
		assert.Equal(t, "t1", ev.TaskID)
		assert.Equal(t, 0, ev.Result.Code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for exit event")
	}

	assert.Eventually(t, func() bool { return sup.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSpawnDuplicateTaskRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher()
	sup := New(launcher)

	_, _, err := sup.Spawn(context.Background(), LaunchSpec{TaskID: "dup"})
	require.NoError(t, err)

	_, _, err = sup.Spawn(context.Background(), LaunchSpec{TaskID: "dup"})
	assert.Error(t, err)

	launcher.handles["dup"].exitCh <- ExitResult{Code: 0}
	<-sup.Exits()
}

func TestCancelSendsSigtermAndDeliversExit(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher()
	sup := New(launcher)

	_, _, err := sup.Spawn(context.Background(), LaunchSpec{TaskID: "killme"})
	require.NoError(t, err)

	require.NoError(t, sup.Cancel("killme"))

	select {
	case ev := <-sup.Exits():
		assert.Equal(t, "killme", ev.TaskID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancelled child to exit")
	}

	sig := <-launcher.handles["killme"].signals
	assert.Equal(t, syscall.SIGTERM, sig)
}

func TestCancelUnknownTaskErrors(t *testing.T) {
	sup := New(newFakeLauncher())
	err := sup.Cancel("nope")
	assert.Error(t, err)
}

func TestCancelAllSignalsEveryChild(t *testing.T) {
	defer goleak.VerifyNone(t)

	launcher := newFakeLauncher()
	sup := New(launcher)

	for _, id := range []string{"a", "b", "c"} {
		_, _, err := sup.Spawn(context.Background(), LaunchSpec{TaskID: id})
		require.NoError(t, err)
	}

	cancelled := sup.CancelAll()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cancelled)

	for _, id := range []string{"a", "b", "c"} {
		<-sup.Exits()
		_ = id
	}
}
