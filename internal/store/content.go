package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRow reports a lookup that matched nothing
var ErrNoRow = errors.New("store: no matching row")

// Actor is a registered member of the surrounding content subsystem
type Actor struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

// Post is a likeable top-level content entity
type Post struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	Content   string    `db:"content"`
	LikeCount int64     `db:"like_count"`
	IsDeleted bool      `db:"is_deleted"`
	CreatedAt time.Time `db:"created_at"`
}

// Comment is a likeable reply-level content entity; replies share this table
type Comment struct {
	ID        int64         `db:"id"`
	PostID    int64         `db:"post_id"`
	AuthorID  int64         `db:"author_id"`
	ParentID  sql.NullInt64 `db:"parent_id"`
	Content   string        `db:"content"`
	LikeCount int64         `db:"like_count"`
	IsDeleted bool          `db:"is_deleted"`
	CreatedAt time.Time     `db:"created_at"`
}

// GetActor looks up an actor by id
func (s *Store) GetActor(ctx context.Context, id int64) (*Actor, error) {
	var a Actor
	err := s.db.GetContext(ctx, &a, `SELECT id, username, created_at FROM actors WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %d: %w", id, err)
	}
	return &a, nil
}

// GetPost looks up a post by id, excluding deleted rows
func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := s.db.GetContext(ctx, &p,
		`SELECT id, author_id, content, like_count, is_deleted, created_at
		 FROM posts WHERE id = ? AND is_deleted = 0`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return &p, nil
}

// GetComment looks up a comment or reply by id, excluding deleted rows
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.GetContext(ctx, &c,
		`SELECT id, post_id, author_id, parent_id, content, like_count, is_deleted, created_at
		 FROM comments WHERE id = ? AND is_deleted = 0`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comment %d: %w", id, err)
	}
	return &c, nil
}

// CreateActor inserts an actor and returns its id
func (s *Store) CreateActor(ctx context.Context, username string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO actors (username) VALUES (?)`, username)
	if err != nil {
		return 0, fmt.Errorf("failed to create actor: %w", err)
	}
	return res.LastInsertId()
}

// CreatePost inserts a post and returns its id
func (s *Store) CreatePost(ctx context.Context, authorID int64, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (author_id, content) VALUES (?, ?)`, authorID, content)
	if err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}
	return res.LastInsertId()
}

// CreateComment inserts a comment and returns its id. A non-zero parentID makes it a reply.
func (s *Store) CreateComment(ctx context.Context, postID, authorID, parentID int64, content string) (int64, error) {
	parent := sql.NullInt64{Int64: parentID, Valid: parentID != 0}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, parent_id, content) VALUES (?, ?, ?, ?)`,
		postID, authorID, parent, content)
	if err != nil {
		return 0, fmt.Errorf("failed to create comment: %w", err)
	}
	return res.LastInsertId()
}
