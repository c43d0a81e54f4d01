// Package claims implements the Claim Registry: a single-process,
// in-memory map (project,taskId) -> {runnerId, claimedAt} with a
// staleness policy, authoritative over task leases (spec.md §4.5).
package claims

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/brainforge/braind/internal/types"
)

// StaleAfter is the constant staleness window: a claim older than
// this may be overridden by a different runner (spec.md §4.5/§5).
const StaleAfter = 5 * time.Minute

// Registry wraps go-cache as a plain concurrent map-with-timestamps;
// go-cache's public API has no atomic compare-and-swap, so claim/
// refresh/override decisions are serialized around it with a
// dedicated mutex — this matches spec.md §5's "Claim Registry MUST
// serialize its operations" requirement literally. TTL passed to
// cache.New is cache.NoExpiration (no automatic expiry): "stale" is a read-time policy
// (now - claimedAt > 5m), not a deletion policy.
type Registry struct {
	mu sync.Mutex
	c  *cache.Cache
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{c: cache.New(cache.NoExpiration, 0)}
}

func key(project, taskID string) string {
	return project + "\x00" + taskID
}

// ClaimResult is what a Claim call reports back.
type ClaimResult struct {
	OK       bool
	Claim    types.Claim
	Conflict bool
	Evicted  bool
}

// Claim attempts to acquire the lease for (project, taskID) on behalf
// of runnerID, per spec.md §4.5:
//   - no entry: insert, success.
//   - same runner: refresh claimedAt, success.
//   - stale: overwrite, success, prior holder evicted.
//   - otherwise: conflict, existing claim returned, isStale=false.
func (r *Registry) Claim(project, taskID, runnerID string) ClaimResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	k := key(project, taskID)

	existingAny, found := r.c.Get(k)
	if !found {
		c := types.Claim{AgentID: runnerID, ClaimedAt: now, ExpiresAt: now.Add(StaleAfter)}
		r.c.SetDefault(k, c)
		return ClaimResult{OK: true, Claim: c}
	}

	existing := existingAny.(types.Claim)

	if existing.AgentID == runnerID {
		existing.ClaimedAt = now
		existing.ExpiresAt = now.Add(StaleAfter)
		r.c.SetDefault(k, existing)
		return ClaimResult{OK: true, Claim: existing}
	}

	if existing.Expired(now) {
		c := types.Claim{AgentID: runnerID, ClaimedAt: now, ExpiresAt: now.Add(StaleAfter)}
		r.c.SetDefault(k, c)
		return ClaimResult{OK: true, Claim: c, Evicted: true}
	}

	return ClaimResult{OK: false, Conflict: true, Claim: existing}
}

// Release deletes the claim for (project, taskID) if present, and
// reports whether one existed. Release is idempotent: a second call
// simply returns existed=false.
func (r *Registry) Release(project, taskID string) (existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(project, taskID)
	if _, found := r.c.Get(k); !found {
		return false
	}
	r.c.Delete(k)
	return true
}

// StatusResult is what a Status call reports.
type StatusResult struct {
	Found   bool
	Claim   types.Claim
	IsStale bool
}

// Status reports the current claim for (project, taskID), if any,
// with isStale derived from the current time.
func (r *Registry) Status(project, taskID string) StatusResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(project, taskID)
	existingAny, found := r.c.Get(k)
	if !found {
		return StatusResult{Found: false}
	}
	existing := existingAny.(types.Claim)
	return StatusResult{Found: true, Claim: existing, IsStale: existing.Expired(time.Now())}
}
