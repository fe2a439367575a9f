package store

import (
	"context"
	"fmt"
	"time"
)

// Counter reconciliation applies one formula per content table: set the
// denormalized like_count to the count of active reaction rows wherever the
// two disagree. The statements are idempotent and safe to run concurrently
// with toggles; they only ever write the store-derived truth.

const syncPostCountsSQL = `
UPDATE posts SET like_count = (
	SELECT COUNT(*) FROM likes
	WHERE likes.resource_id = posts.id
	  AND likes.resource_type = 'POST'
	  AND likes.is_liked = 1
)
WHERE is_deleted = 0
  AND like_count <> (
	SELECT COUNT(*) FROM likes
	WHERE likes.resource_id = posts.id
	  AND likes.resource_type = 'POST'
	  AND likes.is_liked = 1
)`

const syncCommentCountsSQL = `
UPDATE comments SET like_count = (
	SELECT COUNT(*) FROM likes
	WHERE likes.resource_id = comments.id
	  AND likes.resource_type = 'COMMENT'
	  AND likes.is_liked = 1
)
WHERE is_deleted = 0
  AND like_count <> (
	SELECT COUNT(*) FROM likes
	WHERE likes.resource_id = comments.id
	  AND likes.resource_type = 'COMMENT'
	  AND likes.is_liked = 1
)`

// recentFilter restricts a sync statement to resources whose reaction log
// changed at or after the given time.
const recentFilter = `
  AND id IN (
	SELECT resource_id FROM likes
	WHERE resource_type = ? AND updated_at >= ?
)`

// SyncPostLikeCounts corrects every post's like_count against the reaction
// log and returns the number of corrected rows.
func (s *Store) SyncPostLikeCounts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, syncPostCountsSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to sync post like counts: %w", err)
	}
	return res.RowsAffected()
}

// SyncCommentLikeCounts corrects every comment's like_count against the
// reaction log and returns the number of corrected rows.
func (s *Store) SyncCommentLikeCounts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, syncCommentCountsSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to sync comment like counts: %w", err)
	}
	return res.RowsAffected()
}

// SyncRecentPostLikeCounts corrects like_count only for posts with reaction
// activity at or after since.
func (s *Store) SyncRecentPostLikeCounts(ctx context.Context, since time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, syncPostCountsSQL+recentFilter, "POST", since)
	if err != nil {
		return 0, fmt.Errorf("failed to sync recent post like counts: %w", err)
	}
	return res.RowsAffected()
}

// SyncRecentCommentLikeCounts corrects like_count only for comments with
// reaction activity at or after since.
func (s *Store) SyncRecentCommentLikeCounts(ctx context.Context, since time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, syncCommentCountsSQL+recentFilter, "COMMENT", since)
	if err != nil {
		return 0, fmt.Errorf("failed to sync recent comment like counts: %w", err)
	}
	return res.RowsAffected()
}

// SetPostLikeCount overwrites a post's denormalized counter. Used by tests
// and admin tooling to seed drift scenarios.
func (s *Store) SetPostLikeCount(ctx context.Context, postID, count int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE posts SET like_count = ? WHERE id = ?`, count, postID); err != nil {
		return fmt.Errorf("failed to set post like count: %w", err)
	}
	return nil
}
