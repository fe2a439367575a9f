package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/metronon/likewise/internal/store"
)

// Kind is the canonical resource kind as persisted in the reaction log.
// Comments and replies live in the same table and share one kind, so the
// reconciliation formula stays uniform per table.
type Kind string

const (
	KindPost    Kind = "POST"
	KindComment Kind = "COMMENT"
)

var (
	// ErrNotFound reports a resource or actor that does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownType reports a resource type tag outside the closed set.
	// This is a caller bug, distinct from ErrNotFound.
	ErrUnknownType = errors.New("unknown resource type")
)

// Resource is a resolved likeable entity
type Resource struct {
	ID      int64
	OwnerID int64
	Kind    Kind
}

// OwnedBy reports whether the actor owns the resource
func (r *Resource) OwnedBy(actorID int64) bool {
	return r.OwnerID == actorID
}

// Resolver loads likeable entities from the system of record
type Resolver struct {
	store *store.Store
}

// NewResolver creates a new resource resolver
func NewResolver(st *store.Store) *Resolver {
	return &Resolver{
		store: st,
	}
}

// Resolve loads the target entity for a type tag and identifier.
// Valid tags are "post", "comment", and "reply"; comment and reply resolve
// to the same underlying entity kind.
func (r *Resolver) Resolve(ctx context.Context, typeTag string, id int64) (*Resource, error) {
	switch strings.ToLower(typeTag) {
	case "post":
		post, err := r.store.GetPost(ctx, id)
		if errors.Is(err, store.ErrNoRow) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return &Resource{ID: post.ID, OwnerID: post.AuthorID, Kind: KindPost}, nil

	case "comment", "reply":
		comment, err := r.store.GetComment(ctx, id)
		if errors.Is(err, store.ErrNoRow) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return &Resource{ID: comment.ID, OwnerID: comment.AuthorID, Kind: KindComment}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeTag)
	}
}

// ResolveActor confirms the acting member exists
func (r *Resolver) ResolveActor(ctx context.Context, actorID int64) (*store.Actor, error) {
	actor, err := r.store.GetActor(ctx, actorID)
	if errors.Is(err, store.ErrNoRow) {
		return nil, fmt.Errorf("actor %d: %w", actorID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}
