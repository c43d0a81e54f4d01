// Package types holds the plain data model shared by every layer of
// brained: entries, tasks, classifications, features, claims, and the
// runner's persisted state.
package types

import "time"

// EntryType is the closed enum of entry kinds.
type EntryType string

const (
	TypeSummary     EntryType = "summary"
	TypeReport      EntryType = "report"
	TypeWalkthrough EntryType = "walkthrough"
	TypePlan        EntryType = "plan"
	TypePattern     EntryType = "pattern"
	TypeLearning    EntryType = "learning"
	TypeIdea        EntryType = "idea"
	TypeScratch     EntryType = "scratch"
	TypeDecision    EntryType = "decision"
	TypeExploration EntryType = "exploration"
	TypeExecution   EntryType = "execution"
	TypeTask        EntryType = "task"
)

var validEntryTypes = map[EntryType]bool{
	TypeSummary: true, TypeReport: true, TypeWalkthrough: true, TypePlan: true,
	TypePattern: true, TypeLearning: true, TypeIdea: true, TypeScratch: true,
	TypeDecision: true, TypeExploration: true, TypeExecution: true, TypeTask: true,
}

// IsValid reports whether t is one of the closed set of entry types.
func (t EntryType) IsValid() bool { return validEntryTypes[t] }

// EntryStatus is the closed enum of entry lifecycle states.
type EntryStatus string

const (
	StatusDraft      EntryStatus = "draft"
	StatusPending    EntryStatus = "pending"
	StatusActive     EntryStatus = "active"
	StatusInProgress EntryStatus = "in_progress"
	StatusBlocked    EntryStatus = "blocked"
	StatusCompleted  EntryStatus = "completed"
	StatusValidated  EntryStatus = "validated"
	StatusSuperseded EntryStatus = "superseded"
	StatusArchived   EntryStatus = "archived"
	// StatusCancelled is a valid status like the others (an entry update
	// can set it) and participates in the blocked/waiting predicates of
	// §4.3: the dependency engine treats a cancelled task as blocking.
	StatusCancelled EntryStatus = "cancelled"
)

var validEntryStatuses = map[EntryStatus]bool{
	StatusDraft: true, StatusPending: true, StatusActive: true, StatusInProgress: true,
	StatusBlocked: true, StatusCompleted: true, StatusValidated: true,
	StatusSuperseded: true, StatusArchived: true, StatusCancelled: true,
}

// IsValid reports whether s is one of the closed set of entry statuses.
func (s EntryStatus) IsValid() bool { return validEntryStatuses[s] }

// Priority is the closed enum of task/feature priorities.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sort weight where lower sorts first (high < medium < low),
// matching the ordering rule of spec.md §4.3.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Entry is a persisted unit of knowledge or work.
type Entry struct {
	ID        string      `json:"id"`
	Path      string      `json:"path"`
	Type      EntryType   `json:"type"`
	Status    EntryStatus `json:"status"`
	Priority  *Priority   `json:"priority,omitempty"`
	Title     string      `json:"title"`
	Tags      []string    `json:"tags,omitempty"`
	ProjectID string      `json:"project_id,omitempty"`
	Body      string      `json:"body"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Task-only extensions. Populated only when Type == TypeTask.
	DependsOn           []string  `json:"depends_on,omitempty"`
	ParentID            string    `json:"parent_id,omitempty"`
	FeatureID           string    `json:"feature_id,omitempty"`
	FeaturePriority     *Priority `json:"feature_priority,omitempty"`
	FeatureDependsOn    []string  `json:"feature_depends_on,omitempty"`
	Workdir             string    `json:"workdir,omitempty"`
	Worktree            string    `json:"worktree,omitempty"`
	GitRemote           string    `json:"git_remote,omitempty"`
	GitBranch           string    `json:"git_branch,omitempty"`
	UserOriginalRequest string    `json:"user_original_request,omitempty"`
}

// DefaultStatus returns the default status a new entry of this type
// receives when the caller doesn't specify one (spec.md §3 invariants:
// tasks default to draft, everything else defaults to active).
func (t EntryType) DefaultStatus() EntryStatus {
	if t == TypeTask {
		return StatusDraft
	}
	return StatusActive
}

// IsTask reports whether the entry participates in the dependency graph.
func (e *Entry) IsTask() bool { return e.Type == TypeTask }
