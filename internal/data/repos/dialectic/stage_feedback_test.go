package dialectic

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/dialectic-backend/internal/data/repos/testutil"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
)

func TestStageFeedbackRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewStageFeedbackRepo(db, testutil.Logger(t))

	userID := uuid.New()
	p := testutil.SeedProject(t, ctx, tx, userID, "feedback repo project")
	s := testutil.SeedSession(t, ctx, tx, p.ID)

	f := testutil.SeedStageFeedback(t, ctx, tx, s.ID, p.ID, userID, "thesis", 1)
	testutil.SeedStageFeedback(t, ctx, tx, s.ID, p.ID, userID, "antithesis", 1)

	got, err := repo.GetByID(dbc, f.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.StageSlug != "thesis" {
		t.Fatalf("stage slug = %q", got.StageSlug)
	}

	rows, err := repo.GetBySessionStageIteration(dbc, s.ID, "thesis", 1)
	if err != nil {
		t.Fatalf("GetBySessionStageIteration: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != f.ID {
		t.Fatalf("GetBySessionStageIteration len=%d", len(rows))
	}

	if rows, err := repo.GetBySessionStageIteration(dbc, s.ID, "thesis", 2); err != nil || len(rows) != 0 {
		t.Fatalf("other iteration: err=%v len=%d", err, len(rows))
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{f.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetBySessionStageIteration(dbc, s.ID, "thesis", 1); err != nil || len(rows) != 0 {
		t.Fatalf("after FullDeleteByIDs: err=%v len=%d", err, len(rows))
	}
}
