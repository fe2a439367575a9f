package resources

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/metronon/likewise/internal/config"
	"github.com/metronon/likewise/internal/store"
)

func newTestResolver(t *testing.T) (*Resolver, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), &config.Store{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "likewise.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewResolver(st), st
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r, st := newTestResolver(t)

	author, err := st.CreateActor(ctx, "author")
	if err != nil {
		t.Fatal(err)
	}
	postID, err := st.CreatePost(ctx, author, "hello")
	if err != nil {
		t.Fatal(err)
	}
	commID, err := st.CreateComment(ctx, postID, author, 0, "first")
	if err != nil {
		t.Fatal(err)
	}
	replyID, err := st.CreateComment(ctx, postID, author, commID, "agreed")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		typeTag  string
		id       int64
		wantKind Kind
		wantErr  error
	}{
		{name: "post", typeTag: "post", id: postID, wantKind: KindPost},
		{name: "post tag is case-insensitive", typeTag: "POST", id: postID, wantKind: KindPost},
		{name: "comment", typeTag: "comment", id: commID, wantKind: KindComment},
		{name: "reply resolves to comment kind", typeTag: "reply", id: replyID, wantKind: KindComment},
		{name: "reply tag on a top-level comment", typeTag: "reply", id: commID, wantKind: KindComment},
		{name: "missing post", typeTag: "post", id: 999, wantErr: ErrNotFound},
		{name: "missing comment", typeTag: "comment", id: 999, wantErr: ErrNotFound},
		{name: "unknown tag", typeTag: "story", id: postID, wantErr: ErrUnknownType},
		{name: "empty tag", typeTag: "", id: postID, wantErr: ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(ctx, tt.typeTag, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", res.Kind, tt.wantKind)
			}
			if res.ID != tt.id {
				t.Errorf("id = %d, want %d", res.ID, tt.id)
			}
			if !res.OwnedBy(author) {
				t.Error("resource should be owned by its author")
			}
		})
	}
}

func TestResolveActor(t *testing.T) {
	ctx := context.Background()
	r, st := newTestResolver(t)

	id, err := st.CreateActor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	actor, err := r.ResolveActor(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if actor.Username != "alice" {
		t.Errorf("username = %s", actor.Username)
	}

	if _, err := r.ResolveActor(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
