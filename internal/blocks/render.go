package blocks

import (
	"fmt"
	"html"
	"strings"

	"github.com/user/flowblocs/internal/db"
)

// Render produces the flat HTML edit surface for a block list. Every
// element carries data-block-id and data-block-type so identity and type
// survive the edit session; a block with no text still renders as an empty
// element to hold its position.
func Render(blocks []db.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, renderBlock(b))
	}
	return strings.Join(parts, "\n")
}

func renderBlock(b db.Block) string {
	id := html.EscapeString(b.ID.String())
	text := html.EscapeString(b.Content)

	switch b.Type {
	case "paragraph":
		return fmt.Sprintf(`<p data-block-id=%q data-block-type="paragraph">%s</p>`, id, text)
	case "heading_1":
		return fmt.Sprintf(`<h1 data-block-id=%q data-block-type="heading_1">%s</h1>`, id, text)
	case "heading_2":
		return fmt.Sprintf(`<h2 data-block-id=%q data-block-type="heading_2">%s</h2>`, id, text)
	case "heading_3":
		return fmt.Sprintf(`<h3 data-block-id=%q data-block-type="heading_3">%s</h3>`, id, text)
	case "bulleted_list_item":
		return fmt.Sprintf(`<li data-block-id=%q data-block-type="bulleted_list_item">%s</li>`, id, text)
	case "numbered_list_item":
		return fmt.Sprintf(`<li data-block-id=%q data-block-type="numbered_list_item" data-numbered="true">%s</li>`, id, text)
	case "to_do":
		checked := ""
		if b.Metadata.Checked != nil && *b.Metadata.Checked {
			checked = " checked"
		}
		return fmt.Sprintf(`<div data-block-id=%q data-block-type="to_do" class="todo-item"><input type="checkbox"%s disabled> %s</div>`, id, checked, text)
	case "quote":
		return fmt.Sprintf(`<blockquote data-block-id=%q data-block-type="quote">%s</blockquote>`, id, text)
	case "code":
		language := html.EscapeString(b.Metadata.Language)
		return fmt.Sprintf(`<pre data-block-id=%q data-block-type="code" data-language=%q><code>%s</code></pre>`, id, language, text)
	case "divider":
		return fmt.Sprintf(`<hr data-block-id=%q data-block-type="divider">`, id)
	default:
		// image and unsupported types render as a bracketed placeholder
		return fmt.Sprintf(`<p data-block-id=%q data-block-type=%q>[%s]</p>`, id, html.EscapeString(b.Type), html.EscapeString(b.Type))
	}
}
