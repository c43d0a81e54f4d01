package supervisor

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"
)

// ExitEvent is posted to the supervisor's exit channel when a child
// terminates. The scheduler loop drains this channel non-blockingly
// each tick (spec.md §4.7: "must never block the Scheduler Loop").
type ExitEvent struct {
	TaskID    string
	PID       int
	ExitedAt  time.Time
	Result    ExitResult
	WaitError error
}

type child struct {
	taskID    string
	handle    Handle
	startedAt time.Time
	cancel    context.CancelFunc
}

// Supervisor tracks the set of currently-running supervised children
// and exposes cancel/wait without ever blocking its caller. Spawns are
// serialized with spawnMu, adapted from the teacher's
// internal/agents/spawner.go discipline of the same name.
type Supervisor struct {
	launcher ProcessLauncher

	spawnMu sync.Mutex

	mu       sync.Mutex
	children map[string]*child // keyed by taskID

	exitCh chan ExitEvent
}

// New returns a Supervisor backed by the given launcher. Pass a fake
// ProcessLauncher in tests to avoid spawning real processes.
func New(launcher ProcessLauncher) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		children: make(map[string]*child),
		exitCh:   make(chan ExitEvent, 256),
	}
}

// Exits returns the channel the scheduler loop drains each tick.
func (s *Supervisor) Exits() <-chan ExitEvent { return s.exitCh }

// Spawn launches a new child for spec.TaskID and begins watching it.
// Spawns are serialized so two concurrent calls can't race on the
// children map or double-start the same task.
func (s *Supervisor) Spawn(ctx context.Context, spec LaunchSpec) (pid int, startedAt time.Time, err error) {
	s.spawnMu.Lock()
	defer s.spawnMu.Unlock()

	s.mu.Lock()
	if _, exists := s.children[spec.TaskID]; exists {
		s.mu.Unlock()
		return 0, time.Time{}, fmt.Errorf("supervisor: task %q already has a running child", spec.TaskID)
	}
	s.mu.Unlock()

	childCtx, cancel := context.WithCancel(ctx)
	handle, err := s.launcher.Launch(childCtx, spec)
	if err != nil {
		cancel()
		return 0, time.Time{}, fmt.Errorf("supervisor: launch task %q: %w", spec.TaskID, err)
	}

	startedAt = time.Now()
	c := &child{taskID: spec.TaskID, handle: handle, startedAt: startedAt, cancel: cancel}

	s.mu.Lock()
	s.children[spec.TaskID] = c
	s.mu.Unlock()

	go s.watch(c)

	return handle.PID(), startedAt, nil
}

func (s *Supervisor) watch(c *child) {
	result, err := c.handle.Wait()
	c.cancel()

	s.mu.Lock()
	delete(s.children, c.taskID)
	s.mu.Unlock()

	event := ExitEvent{
		TaskID:    c.taskID,
		PID:       c.handle.PID(),
		ExitedAt:  time.Now(),
		Result:    result,
		WaitError: err,
	}

	select {
	case s.exitCh <- event:
	default:
		// Channel full: drop is acceptable here only because the
		// scheduler loop is expected to drain every tick; a full
		// buffer means the loop has stalled far longer than a tick,
		// which is itself the more urgent problem.
	}
}

// Cancel requests the child running taskID stop: SIGTERM first, then
// SIGKILL if it hasn't exited within the grace period. Cancel returns
// immediately; the actual exit is still delivered asynchronously via
// Exits(). Reports ErrNotFound-shaped error if no such child is running.
func (s *Supervisor) Cancel(taskID string) error {
	s.mu.Lock()
	c, ok := s.children[taskID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("supervisor: no running child for task %q", taskID)
	}

	if err := c.handle.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("supervisor: sigterm task %q: %w", taskID, err)
	}

	go func() {
		deadline := time.Now().Add(gracePeriod)
		for time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
			s.mu.Lock()
			stillRunning := s.children[taskID] == c
			s.mu.Unlock()
			if !stillRunning {
				return
			}
		}
		_ = c.handle.Signal(syscall.SIGKILL)
	}()

	return nil
}

// CancelAll signals every running child, used on scheduler shutdown
// per spec.md §4.6: "send SIGTERM to all children, wait up to 5s, then
// SIGKILL survivors".
func (s *Supervisor) CancelAll() []string {
	s.mu.Lock()
	taskIDs := make([]string, 0, len(s.children))
	for id := range s.children {
		taskIDs = append(taskIDs, id)
	}
	s.mu.Unlock()

	for _, id := range taskIDs {
		_ = s.Cancel(id)
	}
	return taskIDs
}

// Running reports the taskIDs with a currently-supervised child.
func (s *Supervisor) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.children))
	for id := range s.children {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of currently-running children, used by the
// scheduler loop to compare against maxParallel.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}
