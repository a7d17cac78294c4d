package blocks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
)

// Writer is the slice of the Notion API the reconciler writes through.
type Writer interface {
	UpdateBlock(ctx context.Context, blockID string, payload notion.Block) (notion.Block, error)
	AppendBlocks(ctx context.Context, parentID string, children []notion.Block) error
}

// Failure records one write that did not land.
type Failure struct {
	BlockID string
	Err     error
}

// SaveResult reports what a save actually did. Successes are not rolled
// back when siblings fail; the caller must refetch to learn true remote
// state before retrying.
type SaveResult struct {
	Updated  int
	Appended int
	Failures []Failure
}

func (r SaveResult) Failed() bool {
	return len(r.Failures) > 0
}

type Reconciler struct {
	writer Writer
	logger *slog.Logger
}

func NewReconciler(writer Writer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{writer: writer, logger: logger}
}

// Save diffs the edited block list against the set of block ids known to
// exist remotely and emits the minimal write set: one update per surviving
// block, carrying only its type-specific payload, and a single append call
// for all new blocks in surface order so the remote side assigns contiguous
// positions. Updates target disjoint remote objects and fan out
// concurrently; all are awaited before the result is reported.
func (r *Reconciler) Save(ctx context.Context, pageID string, edited []db.Block, known map[string]bool) (SaveResult, error) {
	var updates []db.Block
	var created []db.Block
	for _, b := range edited {
		if !b.ID.IsPending() && known[b.ID.Remote()] {
			updates = append(updates, b)
		} else {
			created = append(created, b)
		}
	}

	var result SaveResult
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, b := range updates {
		wg.Add(1)
		go func(b db.Block) {
			defer wg.Done()
			_, err := r.writer.UpdateBlock(ctx, b.ID.Remote(), UpdatePayload(b))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, Failure{BlockID: b.ID.Remote(), Err: err})
				return
			}
			result.Updated++
		}(b)
	}
	wg.Wait()

	if len(created) > 0 {
		children := make([]notion.Block, 0, len(created))
		for _, b := range created {
			children = append(children, AppendPayload(b))
		}
		if err := r.writer.AppendBlocks(ctx, pageID, children); err != nil {
			result.Failures = append(result.Failures, Failure{BlockID: "", Err: err})
		} else {
			result.Appended = len(created)
		}
	}

	if result.Failed() {
		r.logger.Warn("save completed with failures", "page_id", pageID, "failed", len(result.Failures))
		return result, fmt.Errorf("saving page %s: %d of %d operations failed", pageID, len(result.Failures), len(updates)+min(len(created), 1))
	}
	return result, nil
}

// UpdatePayload builds the patch body for an existing block: only the
// type-specific content field, never a full block replace.
func UpdatePayload(b db.Block) notion.Block {
	payload := typedContent(b)
	payload.Type = ""
	return payload
}

// AppendPayload builds one child entry of an append batch.
func AppendPayload(b db.Block) notion.Block {
	return typedContent(b)
}

// typedContent reconstructs the rich text payload as a single run of the
// block's flattened text. Styling marks are not preserved.
func typedContent(b db.Block) notion.Block {
	runs := richTextRuns(b.Content)
	out := notion.Block{Type: b.Type}
	switch b.Type {
	case "heading_1":
		out.Heading1 = &notion.RichTextContent{RichText: runs}
	case "heading_2":
		out.Heading2 = &notion.RichTextContent{RichText: runs}
	case "heading_3":
		out.Heading3 = &notion.RichTextContent{RichText: runs}
	case "bulleted_list_item":
		out.BulletedListItem = &notion.RichTextContent{RichText: runs}
	case "numbered_list_item":
		out.NumberedListItem = &notion.RichTextContent{RichText: runs}
	case "to_do":
		checked := b.Metadata.Checked != nil && *b.Metadata.Checked
		out.ToDo = &notion.ToDoContent{RichText: runs, Checked: checked}
	case "quote":
		out.Quote = &notion.RichTextContent{RichText: runs}
	case "code":
		language := b.Metadata.Language
		if language == "" {
			language = "plain text"
		}
		out.Code = &notion.CodeContent{RichText: runs, Language: language}
	case "divider":
		out.Divider = &struct{}{}
	default:
		out.Type = "paragraph"
		out.Paragraph = &notion.RichTextContent{RichText: runs}
	}
	return out
}

func richTextRuns(content string) []notion.RichText {
	if content == "" {
		return []notion.RichText{}
	}
	return []notion.RichText{{
		Type: "text",
		Text: &notion.TextSpan{Content: content},
	}}
}
