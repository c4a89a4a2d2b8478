package ingest

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
)

func openStore(t *testing.T) *relational.Store {
	t.Helper()
	store, err := relational.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertResource(t *testing.T, db *sql.DB, title string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO resources (type, title, created_at) VALUES (?, ?, ?)`,
		domain.ResourceTypeLink, title, relational.Now(),
	)
	if err != nil {
		t.Fatalf("insert resource: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}

func createJob(t *testing.T, db *sql.DB, resourceID int64, title string) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := CreateTx(ctx, tx, resourceID, domain.ResourceTypeLink, title); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestCreateTxIsIdempotent(t *testing.T) {
	store := openStore(t)
	repo := New(store)
	ctx := context.Background()

	id := insertResource(t, store.DB(), "one")
	createJob(t, store.DB(), id, "one")

	// Mark the job failed, then re-create: the existing row must survive.
	msg := "boom"
	if err := repo.UpdateStatus(ctx, id, domain.IngestFailed, &msg); err != nil {
		t.Fatalf("update status: %v", err)
	}
	createJob(t, store.DB(), id, "one")

	job, err := repo.FindByResourceID(ctx, id)
	if err != nil {
		t.Fatalf("find job: %v", err)
	}
	if job.Status != domain.IngestFailed {
		t.Errorf("duplicate create must not reset the job, got status %q", job.Status)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage != "boom" {
		t.Errorf("error message lost: %v", job.ErrorMessage)
	}
}

func TestFindByResourceIDNotFound(t *testing.T) {
	store := openStore(t)
	repo := New(store)

	_, err := repo.FindByResourceID(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRecentOrdersByLastUpdate(t *testing.T) {
	store := openStore(t)
	repo := New(store)
	ctx := context.Background()

	first := insertResource(t, store.DB(), "first")
	second := insertResource(t, store.DB(), "second")
	createJob(t, store.DB(), first, "first")
	time.Sleep(2 * time.Millisecond)
	createJob(t, store.DB(), second, "second")

	// Touching the older job bumps it to the top.
	time.Sleep(2 * time.Millisecond)
	if err := repo.UpdateStatus(ctx, first, domain.IngestProcessing, nil); err != nil {
		t.Fatalf("update status: %v", err)
	}

	jobs, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ResourceID != first || jobs[1].ResourceID != second {
		t.Errorf("expected newest update first, got %d then %d", jobs[0].ResourceID, jobs[1].ResourceID)
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	store := openStore(t)
	repo := New(store)

	for i := 0; i < 5; i++ {
		id := insertResource(t, store.DB(), "r")
		createJob(t, store.DB(), id, "r")
	}

	jobs, err := repo.ListRecent(context.Background(), 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}
}

func TestUpdateProgressSetsStageAndCounters(t *testing.T) {
	store := openStore(t)
	repo := New(store)
	ctx := context.Background()

	id := insertResource(t, store.DB(), "doc")
	createJob(t, store.DB(), id, "doc")

	total, processed := 12, 7
	if err := repo.UpdateProgress(ctx, id, "embedding", &total, &processed); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	job, err := repo.FindByResourceID(ctx, id)
	if err != nil {
		t.Fatalf("find job: %v", err)
	}
	if job.Stage == nil || *job.Stage != "embedding" {
		t.Errorf("stage: %v", job.Stage)
	}
	if job.TotalUnits == nil || *job.TotalUnits != 12 {
		t.Errorf("total units: %v", job.TotalUnits)
	}
	if job.ProcessedUnits == nil || *job.ProcessedUnits != 7 {
		t.Errorf("processed units: %v", job.ProcessedUnits)
	}
}

func TestUpdateMissingJobReturnsNotFound(t *testing.T) {
	store := openStore(t)
	repo := New(store)
	ctx := context.Background()

	if err := repo.UpdateStatus(ctx, 99, domain.IngestDone, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update status: expected not found, got %v", err)
	}
	total := 1
	if err := repo.UpdateProgress(ctx, 99, "chunking", &total, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update progress: expected not found, got %v", err)
	}
}
