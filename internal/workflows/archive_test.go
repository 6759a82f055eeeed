package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
	"github.com/mahi13singh2004/AIKYAM/internal/workflows"
)

type fakeStore struct {
	pinned   map[string]any
	unpinned []string
}

func (s *fakeStore) PinJSON(ctx context.Context, name string, v any) (string, error) {
	if s.pinned == nil {
		s.pinned = map[string]any{}
	}
	s.pinned[name] = v
	return "QmArchive", nil
}

func (s *fakeStore) FetchJSON(ctx context.Context, cid string, out any) error { return nil }

func (s *fakeStore) Unpin(ctx context.Context, cid string) error {
	s.unpinned = append(s.unpinned, cid)
	return nil
}

type fakeLocations struct {
	ports.UnsafeLocationRepository
	setErr error
	hashes map[string]string
}

func (r *fakeLocations) SetIPFSHash(ctx context.Context, id, hash string) error {
	if r.setErr != nil {
		return r.setErr
	}
	if r.hashes == nil {
		r.hashes = map[string]string{}
	}
	r.hashes[id] = hash
	return nil
}

var archiveInput = workflows.ArchiveInput{
	EventID:    "evt-1",
	LocationID: "loc-1",
	Lat:        10.7275,
	Lng:        76.29,
	ReportedAt: time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC),
}

func TestArchiveWorkflow_PinsAndRecords(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	store := &fakeStore{}
	locations := &fakeLocations{}
	env.RegisterActivity(&workflows.ArchiveActivities{Store: store, Locations: locations})

	env.ExecuteWorkflow(workflows.ArchiveUnsafeLocationWorkflow, archiveInput)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result workflows.ArchiveResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "QmArchive", result.CID)
	assert.Equal(t, "QmArchive", locations.hashes["loc-1"])
	assert.Contains(t, store.pinned, "unsafe-loc-1")
	assert.Empty(t, store.unpinned)
}

func TestArchiveWorkflow_UnpinsWhenRecordFails(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	store := &fakeStore{}
	locations := &fakeLocations{setErr: domain.ErrNotFound}
	env.RegisterActivity(&workflows.ArchiveActivities{Store: store, Locations: locations})

	env.ExecuteWorkflow(workflows.ArchiveUnsafeLocationWorkflow, archiveInput)

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, []string{"QmArchive"}, store.unpinned)
}

func TestArchiveActivities_RecordArchiveWrapsErrors(t *testing.T) {
	acts := &workflows.ArchiveActivities{Locations: &fakeLocations{setErr: errors.New("connection reset")}}
	err := acts.RecordArchive(context.Background(), "loc-1", "QmArchive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record archive loc-1")
}
