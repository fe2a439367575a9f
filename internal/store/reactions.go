package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReactionRecord is one row of the persisted reaction log.
// Identity is (actor_id, resource_id, resource_type); unliking flips
// is_liked to false, rows are never deleted.
type ReactionRecord struct {
	ID            int64     `db:"id"`
	ActorID       int64     `db:"actor_id"`
	ResourceID    int64     `db:"resource_id"`
	ResourceType  string    `db:"resource_type"`
	Active        bool      `db:"is_liked"`
	FirstSeenAt   time.Time `db:"created_at"`
	LastChangedAt time.Time `db:"updated_at"`
}

// FindReaction loads the reaction row for one identity, or ErrNoRow
func (s *Store) FindReaction(ctx context.Context, actorID, resourceID int64, resourceType string) (*ReactionRecord, error) {
	var rec ReactionRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT id, actor_id, resource_id, resource_type, is_liked, created_at, updated_at
		 FROM likes
		 WHERE actor_id = ? AND resource_id = ? AND resource_type = ?`,
		actorID, resourceID, resourceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reaction: %w", err)
	}
	return &rec, nil
}

// BulkInsertReactions inserts brand-new reaction rows in a single statement.
// All records must share one resource type so the statement stays homogeneous.
// The conflict clause keeps re-application idempotent: a re-queued batch that
// already partially landed updates the existing row instead of violating the
// identity constraint.
func (s *Store) BulkInsertReactions(ctx context.Context, recs []ReactionRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO likes (actor_id, resource_id, resource_type, is_liked, created_at, updated_at) VALUES `)

	args := make([]interface{}, 0, len(recs)*6)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, rec.ActorID, rec.ResourceID, rec.ResourceType, rec.Active, rec.FirstSeenAt, rec.LastChangedAt)
	}

	sb.WriteString(` ON CONFLICT (actor_id, resource_id, resource_type)
		DO UPDATE SET is_liked = excluded.is_liked, updated_at = excluded.updated_at`)

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}
	return res.RowsAffected()
}

// BulkUpdateReactions updates existing reaction rows in a single conditional
// statement. Each row's is_liked and updated_at are set per matching
// (actor_id, resource_id, resource_type) triple, one round trip regardless of
// batch size.
func (s *Store) BulkUpdateReactions(ctx context.Context, recs []ReactionRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(recs)*11)

	sb.WriteString("UPDATE likes SET is_liked = CASE ")
	for _, rec := range recs {
		sb.WriteString("WHEN (actor_id = ? AND resource_id = ? AND resource_type = ?) THEN ? ")
		args = append(args, rec.ActorID, rec.ResourceID, rec.ResourceType, rec.Active)
	}

	sb.WriteString("ELSE is_liked END, updated_at = CASE ")
	for _, rec := range recs {
		sb.WriteString("WHEN (actor_id = ? AND resource_id = ? AND resource_type = ?) THEN ? ")
		args = append(args, rec.ActorID, rec.ResourceID, rec.ResourceType, rec.LastChangedAt)
	}

	sb.WriteString("ELSE updated_at END WHERE ")
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(actor_id = ? AND resource_id = ? AND resource_type = ?)")
		args = append(args, rec.ActorID, rec.ResourceID, rec.ResourceType)
	}

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update failed: %w", err)
	}
	return res.RowsAffected()
}

// CountActiveReactions counts persisted active reactions for one resource
func (s *Store) CountActiveReactions(ctx context.Context, resourceID int64, resourceType string) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM likes WHERE resource_id = ? AND resource_type = ? AND is_liked = 1`,
		resourceID, resourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return n, nil
}
