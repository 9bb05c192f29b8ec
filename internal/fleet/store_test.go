package fleet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/camhub/camhub/internal/store"
	"github.com/camhub/camhub/internal/testutil"
	"github.com/camhub/camhub/pkg/models"
)

// storeImpls runs a subtest against each Store implementation.
func storeImpls(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		db, err := store.New(":memory:")
		if err != nil {
			t.Fatalf("open test db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		if err := db.Migrate(context.Background(), "fleet", migrations()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		fn(t, NewSQLNodeStore(db.DB()))
	})

	t.Run("file", func(t *testing.T) {
		fs, err := NewFileStore(filepath.Join(t.TempDir(), "nodes.json"))
		if err != nil {
			t.Fatalf("open file store: %v", err)
		}
		fn(t, fs)
	})
}

func TestStore_CreateAndGet(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		n := testutil.NewNode(
			testutil.WithID("cam1"),
			testutil.WithBearer("s3cret"),
			testutil.WithCapabilities("stream", "snapshot"),
			testutil.WithLabels(map[string]string{"room": "garage"}),
		)

		if err := s.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Get(ctx, "cam1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != n.Name || got.BaseURL != n.BaseURL {
			t.Errorf("Get = %+v, want %+v", got, n)
		}
		if got.Auth.Type != models.AuthBearer || got.Auth.Token != "s3cret" {
			t.Errorf("auth = %+v, want bearer/s3cret", got.Auth)
		}
		if len(got.Capabilities) != 2 {
			t.Errorf("capabilities = %v, want 2 entries", got.Capabilities)
		}
		if got.Labels["room"] != "garage" {
			t.Errorf("labels = %v, want room=garage", got.Labels)
		}
	})
}

func TestStore_DuplicateID(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		n := testutil.NewNode(testutil.WithID("cam1"))

		if err := s.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}
		dup := testutil.NewNode(testutil.WithID("cam1"), testutil.WithName("other"))
		if err := s.Create(ctx, &dup); !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Create(dup) = %v, want ErrDuplicateID", err)
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_ListInsertionOrder(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []string{"charlie", "alpha", "bravo"} {
			n := testutil.NewNode(testutil.WithID(id))
			if err := s.Create(ctx, &n); err != nil {
				t.Fatalf("Create(%s): %v", id, err)
			}
		}

		nodes, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"charlie", "alpha", "bravo"}
		if len(nodes) != len(want) {
			t.Fatalf("len(nodes) = %d, want %d", len(nodes), len(want))
		}
		for i, id := range want {
			if nodes[i].ID != id {
				t.Errorf("nodes[%d].ID = %q, want %q", i, nodes[i].ID, id)
			}
		}
	})
}

func TestStore_Update(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		n := testutil.NewNode(testutil.WithID("cam1"), testutil.WithName("before"))
		if err := s.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}

		n.Name = "after"
		n.Auth = models.AuthConfig{Type: models.AuthBearer, Token: "tok"}
		if err := s.Update(ctx, &n); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, err := s.Get(ctx, "cam1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != "after" || got.Auth.Token != "tok" {
			t.Errorf("updated node = %+v", got)
		}

		missing := testutil.NewNode(testutil.WithID("ghost"))
		if err := s.Update(ctx, &missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(missing) = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_Delete(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		n := testutil.NewNode(testutil.WithID("cam1"))
		if err := s.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := s.Delete(ctx, "cam1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		// Deleting again must report not-found, not succeed silently.
		if err := s.Delete(ctx, "cam1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(twice) = %v, want ErrNotFound", err)
		}
		if _, err := s.Get(ctx, "cam1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(deleted) = %v, want ErrNotFound", err)
		}
	})
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nodes.json")

	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	n := testutil.NewNode(testutil.WithID("cam1"), testutil.WithBearer("tok"))
	if err := fs.Create(ctx, &n); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	got, err := reopened.Get(ctx, "cam1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Auth.Token != "tok" {
		t.Errorf("auth token = %q, want %q", got.Auth.Token, "tok")
	}
}
