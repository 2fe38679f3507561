package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

func TestInsertRequestLog(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	id := createTestUser(t, db, 12345, "ABCD1234")

	entry := &models.RequestLog{
		UserID:    id,
		Feature:   "live_scores",
		Endpoint:  "/fixtures",
		Pool:      models.PoolFree,
		CacheHit:  false,
		LatencyMS: 240,
		Outcome:   models.OutcomeOK,
	}
	require.NoError(t, db.InsertRequestLog(ctx, entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	logs, err := db.ListRequestLogsByUser(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "live_scores", logs[0].Feature)
	assert.Equal(t, models.OutcomeOK, logs[0].Outcome)
}

func TestPruneRequestLogs(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	id := createTestUser(t, db, 12345, "ABCD1234")

	old := &models.RequestLog{UserID: id, Feature: "standings", Endpoint: "/standings", Pool: models.PoolFree, Outcome: models.OutcomeOK}
	require.NoError(t, db.InsertRequestLog(ctx, old))
	recent := &models.RequestLog{UserID: id, Feature: "standings", Endpoint: "/standings", Pool: models.PoolFree, Outcome: models.OutcomeOK}
	require.NoError(t, db.InsertRequestLog(ctx, recent))

	_, err = db.ExecContext(ctx, `UPDATE request_logs SET created_at = $2 WHERE id = $1`, old.ID, time.Now().Add(-40*24*time.Hour))
	require.NoError(t, err)

	removed, err := db.PruneRequestLogs(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	logs, err := db.ListRequestLogsByUser(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, recent.ID, logs[0].ID)
}
