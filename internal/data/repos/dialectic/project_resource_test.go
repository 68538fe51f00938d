package dialectic

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/dialectic-backend/internal/data/repos/testutil"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
)

func TestProjectResourceRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProjectResourceRepo(db, testutil.Logger(t))

	userID := uuid.New()
	p := testutil.SeedProject(t, ctx, tx, userID, "resource repo project")

	prompt := testutil.SeedProjectResource(t, ctx, tx, p.ID, userID, "initial_user_prompt.md", "initial_user_prompt")
	testutil.SeedProjectResource(t, ctx, tx, p.ID, userID, "notes.md", "general_resource")

	got, err := repo.GetByID(dbc, prompt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FileName != "initial_user_prompt.md" {
		t.Fatalf("file name = %q", got.FileName)
	}

	if rows, err := repo.GetByProjectID(dbc, p.ID); err != nil || len(rows) != 2 {
		t.Fatalf("GetByProjectID: err=%v len=%d", err, len(rows))
	}

	rows, err := repo.GetByProjectIDAndType(dbc, p.ID, "general_resource")
	if err != nil {
		t.Fatalf("GetByProjectIDAndType: %v", err)
	}
	if len(rows) != 1 || rows[0].FileName != "notes.md" {
		t.Fatalf("GetByProjectIDAndType len=%d", len(rows))
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{prompt.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByProjectID(dbc, p.ID); err != nil || len(rows) != 1 {
		t.Fatalf("after FullDeleteByIDs: err=%v len=%d", err, len(rows))
	}
}
