package dialectic

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/dialectic-backend/internal/data/repos/testutil"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
)

func TestProjectRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProjectRepo(db, testutil.Logger(t))

	userID := uuid.New()
	p := testutil.SeedProject(t, ctx, tx, userID, "chess app")

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProjectName != "chess app" {
		t.Fatalf("GetByID name = %q", got.ProjectName)
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{p.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByUserID(dbc, userID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserID: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateStatus(dbc, p.ID, "archived"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err = repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Status != "archived" {
		t.Fatalf("status = %q, want archived", got.Status)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{p.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{p.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after SoftDeleteByIDs GetByIDs: err=%v len=%d", err, len(rows))
	}
}
