// Package blocks maps between the three representations of page content:
// raw Notion blocks, normalized internal blocks, and the flat HTML edit
// surface. The surface keeps block identity and type in data attributes so
// the reverse direction can recover them, and a diff against the last known
// remote block set yields a minimal set of write operations.
//
// Known limitation, kept for compatibility with the behavior this engine
// mirrors: rich text styling marks inside a block are flattened to plain
// text on every save.
package blocks

import (
	"fmt"

	"github.com/user/flowblocs/internal/db"
	"github.com/user/flowblocs/internal/notion"
)

// Parse normalizes raw Notion blocks. Positions are dense and zero-based in
// fetch order. Unrecognized types keep their id, position and type name so
// they survive a cache round trip without loss.
func Parse(raw []notion.Block) []db.Block {
	out := make([]db.Block, 0, len(raw))
	for i, b := range raw {
		blk := db.Block{
			ID:          db.RemoteBlockID(b.ID),
			Type:        b.Type,
			HasChildren: b.HasChildren,
			Position:    i,
		}
		switch b.Type {
		case "paragraph":
			blk.Content = richContent(b.Paragraph)
		case "heading_1":
			blk.Content = richContent(b.Heading1)
		case "heading_2":
			blk.Content = richContent(b.Heading2)
		case "heading_3":
			blk.Content = richContent(b.Heading3)
		case "bulleted_list_item":
			blk.Content = richContent(b.BulletedListItem)
		case "numbered_list_item":
			blk.Content = richContent(b.NumberedListItem)
		case "to_do":
			if b.ToDo != nil {
				blk.Content = notion.PlainText(b.ToDo.RichText)
				checked := b.ToDo.Checked
				blk.Metadata.Checked = &checked
			}
		case "quote":
			blk.Content = richContent(b.Quote)
		case "code":
			if b.Code != nil {
				blk.Content = notion.PlainText(b.Code.RichText)
				blk.Metadata.Language = b.Code.Language
			}
		case "image":
			if b.Image != nil {
				if b.Image.File != nil {
					blk.Metadata.URL = b.Image.File.URL
				} else if b.Image.External != nil {
					blk.Metadata.URL = b.Image.External.URL
				}
				if len(b.Image.Caption) > 0 {
					blk.Content = b.Image.Caption[0].PlainText
				}
			}
		case "divider":
			// content-less, kept for its position
		default:
			blk.Content = fmt.Sprintf("[Unsupported block type: %s]", b.Type)
		}
		out = append(out, blk)
	}
	return out
}

func richContent(c *notion.RichTextContent) string {
	if c == nil {
		return ""
	}
	return notion.PlainText(c.RichText)
}
