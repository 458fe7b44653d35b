package curriculum_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/platform/database"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := curriculum.NewPostgresStore(nil); err == nil {
		t.Fatal("NewPostgresStore(nil) should return error")
	}
}

func TestPostgresStore_ImportSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("planner"),
		postgres.WithUsername("planner"),
		postgres.WithPassword("planner"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}
	db, err := database.New(ctx, url, 4, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Migrate is idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	store, err := curriculum.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	want := validSnapshot()
	parent := int64(100)
	want.Topics = append(want.Topics, curriculum.Topic{ID: 101, SubjectID: 10, ParentID: &parent, Name: "Continuity", Importance: 2})
	want.Inputs[0].Completed = true

	if err := store.Import(ctx, want); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	got, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %+v\nwant %+v", got, want)
	}

	// A second import replaces rather than appends.
	if err := store.Import(ctx, &curriculum.Snapshot{Exams: want.Exams}); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	got, err = store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(got.Exams) != 1 || len(got.Topics) != 0 || len(got.Weekly) != 0 {
		t.Errorf("after re-import: %d exams, %d topics, %d weekly; want 1, 0, 0",
			len(got.Exams), len(got.Topics), len(got.Weekly))
	}
}
