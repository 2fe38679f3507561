package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

// InsertRequestLog records one metered feature request. The id is
// assigned here and written back to the entry.
func (db *DB) InsertRequestLog(ctx context.Context, entry *models.RequestLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO request_logs (id, user_id, feature, endpoint, pool, cache_hit, latency_ms, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Feature,
		entry.Endpoint,
		entry.Pool,
		entry.CacheHit,
		entry.LatencyMS,
		entry.Outcome,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}

	return nil
}

// ListRequestLogsByUser returns a user's recent requests, newest first.
func (db *DB) ListRequestLogsByUser(ctx context.Context, userID int64, limit int) ([]*models.RequestLog, error) {
	query := `
		SELECT id, user_id, feature, endpoint, pool, cache_hit, latency_ms, outcome, created_at
		FROM request_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*models.RequestLog
	for rows.Next() {
		var entry models.RequestLog
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Feature,
			&entry.Endpoint,
			&entry.Pool,
			&entry.CacheHit,
			&entry.LatencyMS,
			&entry.Outcome,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request logs: %w", err)
	}

	return logs, nil
}

// PruneRequestLogs deletes log rows older than the retention window.
func (db *DB) PruneRequestLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM request_logs WHERE created_at < $1`

	cutoff := time.Now().Add(-olderThan)
	result, err := db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune request logs: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned request logs: %w", err)
	}

	if removed > 0 {
		db.logger.Info("pruned request logs",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}

	return removed, nil
}
