package dialectic

import (
	"context"
	"testing"

	"github.com/yungbote/dialectic-backend/internal/data/repos/testutil"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
)

func TestStageRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewStageRepo(db, testutil.Logger(t))

	rules := []byte(`{"sources": [{"type": "contribution", "stage_slug": "thesis", "required": true}]}`)
	st := testutil.SeedStage(t, ctx, tx, "synthesis", "Synthesis", rules)

	got, err := repo.GetByID(dbc, st.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Slug != "synthesis" {
		t.Fatalf("slug = %q", got.Slug)
	}

	got, err = repo.GetBySlug(dbc, "synthesis")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.DisplayName != "Synthesis" {
		t.Fatalf("display name = %q", got.DisplayName)
	}

	testutil.SeedStage(t, ctx, tx, "thesis", "Thesis", nil)
	rows, err := repo.List(dbc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("List len = %d, want >= 2", len(rows))
	}
}
