package types

// FeatureTaskStats is the nested task_stats object on a Feature rollup
// (spec.md §3): the six counts the feature engine derives by walking
// every task sharing a feature_id.
type FeatureTaskStats struct {
	Total      int `json:"total"`
	Ready      int `json:"ready"`
	Waiting    int `json:"waiting"`
	Blocked    int `json:"blocked"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Feature is the aggregate rollup of every task sharing a feature_id,
// produced by the feature engine (spec.md §4.4). Status is the
// lifecycle rollup derived from member task statuses; Classification
// is the feature-graph analogue of ClassifiedTask.Classification,
// derived from feature_depends_on edges the same way a task's
// classification is derived from its own dependency edges.
type Feature struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ProjectID string    `json:"project_id,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	DependsOn []string  `json:"depends_on,omitempty"`

	TaskIDs []string `json:"task_ids"`

	Status         EntryStatus    `json:"status"`
	Classification Classification `json:"classification"`

	TaskStats FeatureTaskStats `json:"task_stats"`

	BlockedByFeatures []string `json:"blocked_by_features,omitempty"`
	WaitingOnFeatures []string `json:"waiting_on_features,omitempty"`
}

// ProgressPercent returns the completion ratio as an integer 0-100,
// rounding down. A feature with zero tasks reports 0.
func (f *Feature) ProgressPercent() int {
	if f.TaskStats.Total == 0 {
		return 0
	}
	return (f.TaskStats.Completed * 100) / f.TaskStats.Total
}
