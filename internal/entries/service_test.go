package entries

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/notebook/metastore"
	"github.com/brainforge/braind/internal/types"
)

func newTestService(t *testing.T) (*Service, *notebook.DirectFileBackend) {
	t.Helper()
	root := t.TempDir()
	adapter := notebook.NewDirectFileBackend(root)
	meta, err := metastore.Open(filepath.Join(root, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })
	return New(root, adapter, meta), adapter
}

func TestCreateWritesFileAndMetadataRow(t *testing.T) {
	svc, adapter := newTestService(t)

	res, err := svc.Create(CreateRequest{
		Type:  types.TypeLearning,
		Title: "Retry Jitter Matters",
		Body:  "Body text.",
		Tags:  []string{"reliability"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, res.Status)

	_, err = os.Stat(res.Path)
	assert.NoError(t, err)

	row, err := adapter.GetByPathOrID(res.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Retry Jitter Matters", row.Title)
}

func TestCreateTaskDefaultsToDraft(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeTask, Title: "Ship the thing"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, res.Status)
}

func TestCreateRejectsInvalidType(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(CreateRequest{Type: "bogus", Title: "x"})
	assert.Error(t, err)
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "   "})
	assert.Error(t, err)
}

func TestRecallByIDRecordsAccess(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "Cache warm pools"})
	require.NoError(t, err)

	row, err := svc.Recall(res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cache warm pools", row.Title)

	metaRow, err := svc.meta.Get(res.Path)
	require.NoError(t, err)
	require.NotNil(t, metaRow)
	assert.Equal(t, int64(1), metaRow.AccessCount)
}

func TestRecallMissingReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Recall("does-not-exist")
	assert.Error(t, err)
}

func TestUpdateChangesTitleAndStatus(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeTask, Title: "Draft plan"})
	require.NoError(t, err)

	newTitle := "Finalized plan"
	newStatus := types.StatusInProgress
	updated, err := svc.Update(UpdateRequest{Ref: res.ID, Title: &newTitle, Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, "Finalized plan", updated.Title)
	assert.Equal(t, "in_progress", updated.Metadata["status"])
}

func TestDeleteRemovesFileAndMetadata(t *testing.T) {
	svc, adapter := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeScratch, Title: "Temp note"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(res.ID))

	_, err = os.Stat(res.Path)
	assert.True(t, os.IsNotExist(err))

	row, err := adapter.GetByPathOrID(res.ID)
	assert.Error(t, err)
	assert.Nil(t, row)

	metaRow, err := svc.meta.Get(res.Path)
	require.NoError(t, err)
	assert.Nil(t, metaRow)
}

func TestGenerateLinkProducesCanonicalForm(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "Worth revisiting"})
	require.NoError(t, err)

	link, err := svc.GenerateLink(res.ID)
	require.NoError(t, err)
	assert.Equal(t, "[Worth revisiting]("+res.ID+")", link)
}

func TestListOrphansExcludesLinkedEntries(t *testing.T) {
	svc, _ := newTestService(t)
	a, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "Idea A"})
	require.NoError(t, err)
	_, err = svc.Create(CreateRequest{
		Type: types.TypeIdea, Title: "Idea B", RelatedEntries: []string{a.ID},
	})
	require.NoError(t, err)

	orphans, err := svc.ListOrphans()
	require.NoError(t, err)
	for _, o := range orphans {
		assert.NotEqual(t, "Idea A", o.Title)
		assert.NotEqual(t, "Idea B", o.Title)
	}
}

func TestGetStatsCountsByType(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "One"})
	require.NoError(t, err)
	_, err = svc.Create(CreateRequest{Type: types.TypeIdea, Title: "Two"})
	require.NoError(t, err)
	_, err = svc.Create(CreateRequest{Type: types.TypePlan, Title: "Three"})
	require.NoError(t, err)

	stats, err := svc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.ByType["idea"])
	assert.Equal(t, 1, stats.ByType["plan"])
}

func TestInjectResolvesAndSkipsMissingRefs(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Create(CreateRequest{Type: types.TypeIdea, Title: "Known good", Body: "the body"})
	require.NoError(t, err)

	results := svc.Inject(InjectRequest{Refs: []string{res.ID, "missing-ref"}})
	require.Len(t, results, 2)
	assert.True(t, results[0].Resolved)
	assert.False(t, results[1].Resolved)
}
