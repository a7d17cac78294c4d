// Package sync decides, per collection, whether to serve cached rows or
// refresh from the Notion API. A refresh replaces the whole collection
// (delete then reinsert) so the first row's last_synced stamp is a valid
// freshness proxy for every row in it.
package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/user/flowblocs/internal/blocks"
	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
)

// DefaultTTL is how long a cached collection is served without consulting
// the remote API.
const DefaultTTL = 30 * time.Minute

// Client is the slice of the Notion API the engine reads from.
type Client interface {
	SearchDatabases(ctx context.Context) ([]notion.Database, error)
	QueryDatabasePages(ctx context.Context, databaseID, cursor string) (notion.PageList, error)
	FetchPage(ctx context.Context, pageID string) (notion.Page, error)
	FetchBlocks(ctx context.Context, pageID string) ([]notion.Block, error)
	CheckHasChildPages(ctx context.Context, pageID string) (bool, error)
}

type Engine struct {
	client Client
	store  *db.Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type Options struct {
	TTL    time.Duration
	Logger *slog.Logger
}

func NewEngine(client Client, store *db.Store, opts Options) *Engine {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (e *Engine) fresh(lastSynced time.Time) bool {
	return e.now().Sub(lastSynced) <= e.ttl
}

// Databases returns the workspace's databases, from cache when fresh.
func (e *Engine) Databases(ctx context.Context, forceRefresh bool) ([]db.Database, error) {
	if !forceRefresh {
		cached, err := e.store.ListDatabases()
		if err == nil && len(cached) > 0 && e.fresh(cached[0].LastSynced) {
			return cached, nil
		}
	}

	raw, err := e.client.SearchDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching databases: %w", err)
	}

	now := e.now().UTC()
	databases := make([]db.Database, 0, len(raw))
	for _, r := range raw {
		databases = append(databases, db.Database{
			ID:         r.ID,
			Title:      notion.ResolveDatabaseTitle(r.Title),
			Icon:       notion.ExtractIcon(r.Icon),
			URL:        r.URL,
			LastSynced: now,
		})
	}

	if err := e.store.DeleteDatabases(); err != nil {
		e.logger.Warn("clearing database cache failed", "error", err)
	}
	for i := range databases {
		if err := e.store.UpsertDatabase(&databases[i]); err != nil {
			e.logger.Warn("caching database failed", "database_id", databases[i].ID, "error", err)
		}
	}
	return databases, nil
}

// DatabasePages returns the pages of one database, from cache when fresh.
// Every fetched page is cached, but only pages whose resolved title passes
// the validity filter are returned: a page nobody can identify should not
// be draggable onto the canvas.
func (e *Engine) DatabasePages(ctx context.Context, databaseID string, forceRefresh bool) ([]db.Page, error) {
	if !forceRefresh {
		cached, err := e.store.PagesByDatabase(databaseID)
		if err == nil && len(cached) > 0 && e.fresh(cached[0].LastSynced) {
			return validOnly(cached), nil
		}
	}

	raw, err := e.queryAllPages(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("fetching pages for database %s: %w", databaseID, err)
	}

	now := e.now().UTC()
	pages := make([]db.Page, 0, len(raw))
	for _, r := range raw {
		resolution := notion.ResolvePageTitle(r.Properties)
		hasChildren, err := e.client.CheckHasChildPages(ctx, r.ID)
		if err != nil {
			e.logger.Warn("child page probe failed", "page_id", r.ID, "error", err)
		}
		page := db.Page{
			ID:          r.ID,
			Title:       resolution.Title,
			Icon:        notion.ExtractIcon(r.Icon),
			URL:         r.URL,
			Properties:  r.Properties,
			DatabaseID:  databaseID,
			HasChildren: hasChildren,
			ObjectType:  "page",
			Valid:       resolution.Valid,
			LastSynced:  now,
		}
		if r.Cover != nil {
			page.Cover = r.Cover.URL
		}
		pages = append(pages, page)
	}

	if err := e.store.DeletePages(databaseID); err != nil {
		e.logger.Warn("clearing page cache failed", "database_id", databaseID, "error", err)
	}
	for i := range pages {
		if err := e.store.UpsertPage(&pages[i]); err != nil {
			e.logger.Warn("caching page failed", "page_id", pages[i].ID, "error", err)
		}
	}
	if err := e.store.SetDatabasePageCount(databaseID, len(pages)); err != nil {
		e.logger.Warn("updating page count failed", "database_id", databaseID, "error", err)
	}
	return validOnly(pages), nil
}

func (e *Engine) queryAllPages(ctx context.Context, databaseID string) ([]notion.Page, error) {
	var all []notion.Page
	cursor := ""
	for {
		list, err := e.client.QueryDatabasePages(ctx, databaseID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return all, nil
}

// PageBlocks returns a page's content blocks, from cache when fresh.
func (e *Engine) PageBlocks(ctx context.Context, pageID string, forceRefresh bool) ([]db.Block, error) {
	if !forceRefresh {
		cached, err := e.store.BlocksByPage(pageID)
		if err == nil && len(cached) > 0 && e.fresh(cached[0].LastSynced) {
			return cached, nil
		}
	}

	raw, err := e.client.FetchBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("fetching blocks for page %s: %w", pageID, err)
	}

	parsed := blocks.Parse(raw)
	now := e.now().UTC()
	for i := range parsed {
		parsed[i].LastSynced = now
	}

	if err := e.store.DeleteBlocks(pageID); err != nil {
		e.logger.Warn("clearing block cache failed", "page_id", pageID, "error", err)
	}
	for i := range parsed {
		if err := e.store.InsertBlock(pageID, &parsed[i]); err != nil {
			e.logger.Warn("caching block failed", "block_id", parsed[i].ID.Remote(), "error", err)
		}
	}
	return parsed, nil
}

// InvalidatePage drops a page's cached blocks so the next read refetches.
// Called after a save, when the remote block set has moved past the cache.
func (e *Engine) InvalidatePage(pageID string) error {
	return e.store.DeleteBlocks(pageID)
}

func validOnly(pages []db.Page) []db.Page {
	out := make([]db.Page, 0, len(pages))
	for _, p := range pages {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}
