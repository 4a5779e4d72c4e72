package batch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/features/batch"
	"finsight/internal/testutils"
)

func TestPostgresRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := batch.NewPostgresRepo(s.DB)
	ctx := context.Background()
	batchID := uuid.NewString()

	err := repo.Create(ctx, &batch.Progress{BatchID: batchID, Total: 4, Status: batch.StatusInProgress})
	require.NoError(t, err)

	// Concurrent completions must not lose updates.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, repo.TaskStarted(ctx, batchID))
			var failure *batch.Failure
			if i == 0 {
				failure = &batch.Failure{DocumentID: "doc0", Error: "boom"}
			}
			_, err := repo.TaskFinished(ctx, batchID, failure)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := repo.Get(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Processed)
	assert.Equal(t, 0, p.CurrentTasks)
	assert.InDelta(t, 100.0, p.PercentComplete, 0.001)
	require.Len(t, p.Failures, 1)
	assert.Equal(t, "doc0", p.Failures[0].DocumentID)

	require.NoError(t, repo.Finalize(ctx, batchID, batch.StatusCompleted, ""))
	p, err = repo.Get(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusCompleted, p.Status)
	assert.Equal(t, 100.0, p.PercentComplete)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, batch.ErrNotFound)
}
