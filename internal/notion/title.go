package notion

import (
	"fmt"
	"sort"
	"strings"
)

// Sentinel titles assigned when no usable title can be resolved. Pages
// carrying one are cached but never surfaced for drag-and-drop.
const (
	UntitledPage     = "Untitled Page"
	UntitledDatabase = "Untitled Database"
)

// TitleSource records which ladder step produced a title.
type TitleSource int

const (
	TitleFromSchema TitleSource = iota // the schema-marked title field
	TitleFromConventionalName
	TitleFromRichText // best-effort, not authoritative
	TitleFromSelect   // best-effort, not authoritative
	TitleSentinel
)

// Resolution is the outcome of the title ladder for one page.
type Resolution struct {
	Title  string
	Source TitleSource
	Valid  bool
}

// conventionalTitleNames are probed in order when the schema-marked title
// field is empty. Real workspaces routinely rename the title field to one
// of these.
var conventionalTitleNames = [...]string{"Name", "Title", "title", "name"}

// ResolvePageTitle derives a display title from an opaque, user-defined
// property schema. Steps are tried in strict precedence order and the first
// match wins; a low-confidence step never overrides a higher one. Resolution
// is per-page and stateless. Properties are scanned in lexicographic name
// order so the result does not depend on map iteration.
func ResolvePageTitle(properties map[string]PropertyValue) Resolution {
	names := sortedNames(properties)

	// Step 1: the schema-marked title field. The platform guarantees
	// exactly one per page.
	for _, name := range names {
		prop := properties[name]
		if prop.Type != "title" {
			continue
		}
		if title := PlainText(prop.Title); title != "" {
			return Resolution{Title: title, Source: TitleFromSchema, Valid: ValidForCanvas(title)}
		}
	}

	// Step 2: conventional field names that are also title-typed.
	for _, name := range conventionalTitleNames {
		prop, ok := properties[name]
		if !ok || prop.Type != "title" {
			continue
		}
		if title := PlainText(prop.Title); title != "" {
			return Resolution{Title: title, Source: TitleFromConventionalName, Valid: ValidForCanvas(title)}
		}
	}

	// Step 3: any non-empty rich text field, first run only.
	for _, name := range names {
		prop := properties[name]
		if prop.Type != "rich_text" || len(prop.RichText) == 0 {
			continue
		}
		if title := prop.RichText[0].PlainText; title != "" {
			return Resolution{Title: title, Source: TitleFromRichText, Valid: ValidForCanvas(title)}
		}
	}

	// Step 4: a selected option, labelled with its field name.
	for _, name := range names {
		prop := properties[name]
		if prop.Type != "select" || prop.Select == nil || prop.Select.Name == "" {
			continue
		}
		title := fmt.Sprintf("%s (%s)", prop.Select.Name, name)
		return Resolution{Title: title, Source: TitleFromSelect, Valid: ValidForCanvas(title)}
	}

	return Resolution{Title: UntitledPage, Source: TitleSentinel, Valid: false}
}

// ResolveDatabaseTitle extracts a database title. Database titles are a
// first-class rich text array, not a dynamic property.
func ResolveDatabaseTitle(title []RichText) string {
	if t := PlainText(title); t != "" {
		return t
	}
	return UntitledDatabase
}

// ValidForCanvas reports whether a resolved title identifies the page well
// enough to be dragged onto the canvas or listed in the sidebar.
func ValidForCanvas(title string) bool {
	trimmed := strings.TrimSpace(title)
	return trimmed != "" && trimmed != "Untitled" && trimmed != UntitledPage
}

func sortedNames(properties map[string]PropertyValue) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
