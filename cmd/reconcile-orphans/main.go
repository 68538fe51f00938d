package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/dialectic-backend/internal/app"
	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// Scans each project's storage prefix for objects no database row points at.
// Default is report-only; -delete removes orphans older than the grace
// period, so in-flight uploads that have not been registered yet survive.
func main() {
	var projects idList
	var doDelete bool
	var grace time.Duration
	var workers int
	flag.Var(&projects, "project", "project_id to scan (repeatable, default all)")
	flag.BoolVar(&doDelete, "delete", false, "delete orphaned objects instead of reporting them")
	flag.DurationVar(&grace, "grace", 24*time.Hour, "minimum object age before it counts as orphaned")
	flag.IntVar(&workers, "workers", 4, "concurrent project scans")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	var rows []*types.Project
	if len(projects) > 0 {
		ids := make([]uuid.UUID, 0, len(projects))
		for _, p := range projects {
			id, err := uuid.Parse(strings.TrimSpace(p))
			if err == nil && id != uuid.Nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			fmt.Println("no valid project_id values provided")
			return
		}
		rows, err = application.Repos.Project.GetByIDs(dbc, ids)
	} else {
		err = application.DB.WithContext(ctx).Find(&rows).Error
	}
	if err != nil {
		fmt.Printf("load projects: %v\n", err)
		os.Exit(1)
	}

	if workers < 1 {
		workers = 1
	}
	cutoff := time.Now().Add(-grace)

	var orphans, deleted, failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, project := range rows {
		if project == nil || project.ID == uuid.Nil {
			continue
		}
		project := project
		g.Go(func() error {
			n, d, err := reconcileProject(gctx, application, project, cutoff, doDelete)
			if err != nil {
				failures.Add(1)
				fmt.Printf("project %s: %v\n", project.ID.String(), err)
				return nil
			}
			orphans.Add(n)
			deleted.Add(d)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("done; orphans=%d deleted=%d failed_projects=%d\n",
		orphans.Load(), deleted.Load(), failures.Load())
	if failures.Load() > 0 {
		os.Exit(1)
	}
}

func reconcileProject(ctx context.Context, application *app.App, project *types.Project, cutoff time.Time, doDelete bool) (int64, int64, error) {
	dbc := dbctx.Context{Ctx: ctx}
	known, err := knownKeysForProject(dbc, application, project.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("collect registered keys: %w", err)
	}

	keys, err := application.Services.Bucket.ListKeys(ctx, project.ID.String()+"/")
	if err != nil {
		return 0, 0, fmt.Errorf("list storage prefix: %w", err)
	}

	var orphans, deleted int64
	for _, key := range keys {
		if known[key] {
			continue
		}
		attrs, err := application.Services.Bucket.GetObjectAttrs(ctx, key)
		if err != nil {
			fmt.Printf("attrs failed for %s: %v\n", key, err)
			continue
		}
		if attrs.Updated.After(cutoff) {
			continue
		}
		orphans++
		if !doDelete {
			fmt.Printf("[orphan] %s (updated %s)\n", key, attrs.Updated.Format(time.RFC3339))
			continue
		}
		if err := application.Services.Bucket.Delete(ctx, key); err != nil {
			fmt.Printf("delete failed for %s: %v\n", key, err)
			continue
		}
		deleted++
		fmt.Printf("deleted %s\n", key)
	}
	return orphans, deleted, nil
}

// knownKeysForProject gathers every storage key the database still points
// at: contributions (including raw response siblings), project resources and
// stage feedback.
func knownKeysForProject(dbc dbctx.Context, application *app.App, projectID uuid.UUID) (map[string]bool, error) {
	known := make(map[string]bool)

	sessions, err := application.Repos.Session.GetByProjectIDs(dbc, []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		contributions, err := application.Repos.Contribution.GetBySessionID(dbc, session.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range contributions {
			if c.StoragePath != "" && c.FileName != "" {
				known[c.StoragePath+"/"+c.FileName] = true
			}
			if c.RawResponseStoragePath != nil && *c.RawResponseStoragePath != "" {
				known[*c.RawResponseStoragePath] = true
			}
		}

		feedback := []*types.StageFeedback{}
		if err := application.DB.WithContext(dbc.Ctx).
			Where("session_id = ?", session.ID).
			Find(&feedback).Error; err != nil {
			return nil, err
		}
		for _, f := range feedback {
			if f.StoragePath != "" && f.FileName != "" {
				known[f.StoragePath+"/"+f.FileName] = true
			}
		}
	}

	resources, err := application.Repos.ProjectResource.GetByProjectID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		if r.StoragePath != "" && r.FileName != "" {
			known[r.StoragePath+"/"+r.FileName] = true
		}
	}
	return known, nil
}
