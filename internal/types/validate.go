package types

import "fmt"

// Validate checks the closed-enum and task-specific invariants spec.md
// §3 places on an entry before it is persisted, mirroring the
// teacher's Task.Validate() shape (internal/tasks/types.go).
func (e *Entry) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("entry: title is required")
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("entry: invalid type %q", e.Type)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("entry: invalid status %q", e.Status)
	}
	if e.Priority != nil {
		switch *e.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return fmt.Errorf("entry: invalid priority %q", *e.Priority)
		}
	}
	if e.Type != TypeTask {
		if len(e.DependsOn) > 0 || e.ParentID != "" || e.FeatureID != "" {
			return fmt.Errorf("entry: task-only fields set on non-task entry of type %q", e.Type)
		}
		return nil
	}
	for _, dep := range e.DependsOn {
		if dep == e.ID {
			return fmt.Errorf("entry: task %q cannot depend on itself", e.ID)
		}
	}
	if e.ParentID != "" && e.ParentID == e.ID {
		return fmt.Errorf("entry: task %q cannot be its own parent", e.ID)
	}
	return nil
}
