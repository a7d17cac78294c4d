package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
)

// maxHierarchyChildren bounds how many child pages are resolved per parent.
// Resolving a child costs one page fetch, so a sprawling parent would
// otherwise dominate the refresh.
const maxHierarchyChildren = 10

// PageHierarchy returns a page together with its direct child pages for
// drill-down navigation, from cache when fresh. Child pages are discovered
// by scanning the parent's blocks for child_page entries.
func (e *Engine) PageHierarchy(ctx context.Context, pageID string, forceRefresh bool) (*db.Page, []db.Page, error) {
	if !forceRefresh {
		cached, err := e.store.GetPage(pageID)
		if err == nil && e.fresh(cached.LastSynced) {
			children, err := e.store.ChildPages(pageID)
			if err != nil {
				return nil, nil, err
			}
			return cached, children, nil
		}
	}

	raw, err := e.client.FetchPage(ctx, pageID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching page %s: %w", pageID, err)
	}
	rawBlocks, err := e.client.FetchBlocks(ctx, pageID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching blocks for page %s: %w", pageID, err)
	}

	var childBlocks []notion.Block
	for _, b := range rawBlocks {
		if b.Type == "child_page" {
			childBlocks = append(childBlocks, b)
		}
	}

	resolution := notion.ResolvePageTitle(raw.Properties)
	now := e.now().UTC()
	page := db.Page{
		ID:          pageID,
		Title:       resolution.Title,
		Icon:        notion.ExtractIcon(raw.Icon),
		URL:         raw.URL,
		Properties:  raw.Properties,
		HasChildren: len(childBlocks) > 0,
		ChildCount:  len(childBlocks),
		ObjectType:  "page",
		DepthLevel:  0,
		Valid:       resolution.Valid,
		LastSynced:  now,
	}
	if err := e.store.UpsertPage(&page); err != nil {
		e.logger.Warn("caching page failed", "page_id", pageID, "error", err)
	}

	var children []db.Page
	for i, child := range childBlocks {
		if i >= maxHierarchyChildren {
			break
		}
		childPage, err := e.resolveChild(ctx, pageID, child, now)
		if err != nil {
			e.logger.Warn("resolving child page failed", "page_id", child.ID, "error", err)
			continue
		}
		if err := e.store.UpsertPage(childPage); err != nil {
			e.logger.Warn("caching child page failed", "page_id", childPage.ID, "error", err)
		}
		children = append(children, *childPage)
	}
	return &page, children, nil
}

func (e *Engine) resolveChild(ctx context.Context, parentID string, block notion.Block, now time.Time) (*db.Page, error) {
	raw, err := e.client.FetchPage(ctx, block.ID)
	if err != nil {
		return nil, err
	}

	title := notion.ResolvePageTitle(raw.Properties).Title
	if title == notion.UntitledPage && block.ChildPage != nil && block.ChildPage.Title != "" {
		title = block.ChildPage.Title
	}
	return &db.Page{
		ID:         block.ID,
		Title:      title,
		Icon:       notion.ExtractIcon(raw.Icon),
		URL:        raw.URL,
		ParentID:   parentID,
		ObjectType: "page",
		DepthLevel: 1,
		Valid:      notion.ValidForCanvas(title),
		LastSynced: now,
	}, nil
}
