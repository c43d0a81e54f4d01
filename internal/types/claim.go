package types

import "time"

// Claim is a lease an agent process holds on a task so that two
// schedulers racing the same ready queue don't both dispatch it
// (spec.md §4.5).
type Claim struct {
	TaskID    string    `json:"task_id"`
	AgentID   string    `json:"agent_id"`
	ClaimedAt time.Time `json:"claimed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the claim's lease has lapsed as of now.
func (c *Claim) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
