package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brainforge/braind/internal/types"
)

func TestClaimFirstRunnerSucceeds(t *testing.T) {
	r := New()
	res := r.Claim("proj", "t1", "r1")
	assert.True(t, res.OK)
	assert.Equal(t, "r1", res.Claim.AgentID)
}

func TestClaimSameRunnerRefreshes(t *testing.T) {
	r := New()
	first := r.Claim("proj", "t1", "r1")
	second := r.Claim("proj", "t1", "r1")

	assert.True(t, second.OK)
	assert.False(t, second.Conflict)
	assert.True(t, !second.Claim.ClaimedAt.Before(first.Claim.ClaimedAt))
}

func TestClaimConflictFromDifferentRunner(t *testing.T) {
	r := New()
	r.Claim("proj", "t1", "r1")

	res := r.Claim("proj", "t1", "r2")
	assert.False(t, res.OK)
	assert.True(t, res.Conflict)
	assert.Equal(t, "r1", res.Claim.AgentID)
}

func TestClaimStaleOverrideEvictsPriorHolder(t *testing.T) {
	r := New()
	r.mu.Lock()
	r.c.SetDefault(key("proj", "t1"), staleClaimFor("r1"))
	r.mu.Unlock()

	res := r.Claim("proj", "t1", "r2")
	assert.True(t, res.OK)
	assert.True(t, res.Evicted)
	assert.Equal(t, "r2", res.Claim.AgentID)
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := New()
	r.Claim("proj", "t1", "r1")

	assert.True(t, r.Release("proj", "t1"))
	assert.False(t, r.Release("proj", "t1"))
}

func TestStatusReportsStaleness(t *testing.T) {
	r := New()
	r.Claim("proj", "t1", "r1")

	status := r.Status("proj", "t1")
	assert.True(t, status.Found)
	assert.False(t, status.IsStale)
}

func staleClaimFor(runnerID string) types.Claim {
	claimedAt := time.Now().Add(-(StaleAfter + time.Second))
	return types.Claim{AgentID: runnerID, ClaimedAt: claimedAt, ExpiresAt: claimedAt.Add(StaleAfter)}
}
