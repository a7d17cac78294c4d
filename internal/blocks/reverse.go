package blocks

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/user/flowblocs/internal/db"
)

// ParseSurface reconstructs a block list from the edited HTML surface. Top
// level elements are walked in order; identity and type come back from the
// data attributes. An element without a remote id is a freshly created
// block. Elements with no text are dropped, except dividers, which carry no
// text by nature. Unrecognized element types are folded into paragraphs.
func ParseSurface(surface string) ([]db.Block, error) {
	doc, err := html.Parse(strings.NewReader(surface))
	if err != nil {
		return nil, fmt.Errorf("parsing edit surface: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		return nil, nil
	}

	stamp := time.Now().UnixNano()
	var out []db.Block
	i := 0
	for el := body.FirstChild; el != nil; el = el.NextSibling {
		if el.Type != html.ElementNode {
			continue
		}
		i++

		blockType := attr(el, "data-block-type")
		text := textContent(el)
		if strings.TrimSpace(text) == "" && blockType != "divider" {
			continue
		}

		id := db.ParseBlockID(attr(el, "data-block-id"))
		if id.IsPending() && id.String() == "" {
			id = db.PendingBlockID(fmt.Sprintf("%d-%d", stamp, i))
		}

		blk := db.Block{ID: id, Type: blockType, Position: len(out)}
		switch blockType {
		case "paragraph", "heading_1", "heading_2", "heading_3",
			"bulleted_list_item", "numbered_list_item", "quote":
			blk.Content = text
		case "to_do":
			blk.Content = strings.TrimPrefix(text, " ")
			checked := hasCheckedInput(el)
			blk.Metadata.Checked = &checked
		case "code":
			blk.Content = text
			language := attr(el, "data-language")
			if language == "" {
				language = "plain text"
			}
			blk.Metadata.Language = language
		case "divider":
			// kept regardless of text
		default:
			blk.Type = "paragraph"
			blk.Content = text
		}
		out = append(out, blk)
	}
	return out, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasCheckedInput(n *html.Node) bool {
	if n.Type == html.ElementNode && n.Data == "input" {
		for _, a := range n.Attr {
			if a.Key == "checked" {
				return true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasCheckedInput(c) {
			return true
		}
	}
	return false
}
