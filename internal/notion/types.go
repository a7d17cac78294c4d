package notion

// Raw Notion API object shapes. Properties are schema-defined per database,
// so PropertyValue is a tagged union discriminated by Type: exactly one of
// the typed fields is populated, and unknown kinds keep their discriminator
// so they round-trip without loss.

type RichText struct {
	Type      string    `json:"type,omitempty"`
	Text      *TextSpan `json:"text,omitempty"`
	PlainText string    `json:"plain_text,omitempty"`
}

type TextSpan struct {
	Content string `json:"content"`
}

// PlainText concatenates the plain text of all runs with no separator.
func PlainText(runs []RichText) string {
	var out string
	for _, r := range runs {
		out += r.PlainText
	}
	return out
}

type Icon struct {
	Type     string    `json:"type"`
	Emoji    string    `json:"emoji,omitempty"`
	External *FileLink `json:"external,omitempty"`
	File     *FileLink `json:"file,omitempty"`
}

type FileLink struct {
	URL string `json:"url"`
}

// ExtractIcon reduces a Notion icon object to a single display rune: the
// emoji itself, a link marker for external files, a page marker for
// Notion-hosted files.
func ExtractIcon(icon *Icon) string {
	if icon == nil {
		return ""
	}
	switch {
	case icon.Type == "emoji":
		return icon.Emoji
	case icon.Type == "external" && icon.External != nil && icon.External.URL != "":
		return "🔗"
	case icon.Type == "file" && icon.File != nil && icon.File.URL != "":
		return "📄"
	}
	return ""
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

type PropertyValue struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	URL         string         `json:"url,omitempty"`
	Email       string         `json:"email,omitempty"`
	PhoneNumber string         `json:"phone_number,omitempty"`
}

type Database struct {
	ID    string     `json:"id"`
	Title []RichText `json:"title"`
	Icon  *Icon      `json:"icon,omitempty"`
	URL   string     `json:"url,omitempty"`
}

type Page struct {
	ID         string                   `json:"id"`
	Icon       *Icon                    `json:"icon,omitempty"`
	Cover      *FileLink                `json:"cover,omitempty"`
	URL        string                   `json:"url,omitempty"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PageList is one page of database query results.
type PageList struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type RichTextContent struct {
	RichText []RichText `json:"rich_text"`
}

type ToDoContent struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

type CodeContent struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
}

type ImageContent struct {
	File     *FileLink  `json:"file,omitempty"`
	External *FileLink  `json:"external,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
}

type Block struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph        *RichTextContent `json:"paragraph,omitempty"`
	Heading1         *RichTextContent `json:"heading_1,omitempty"`
	Heading2         *RichTextContent `json:"heading_2,omitempty"`
	Heading3         *RichTextContent `json:"heading_3,omitempty"`
	BulletedListItem *RichTextContent `json:"bulleted_list_item,omitempty"`
	NumberedListItem *RichTextContent `json:"numbered_list_item,omitempty"`
	ToDo             *ToDoContent     `json:"to_do,omitempty"`
	Quote            *RichTextContent `json:"quote,omitempty"`
	Code             *CodeContent     `json:"code,omitempty"`
	Image            *ImageContent    `json:"image,omitempty"`
	Divider          *struct{}        `json:"divider,omitempty"`
	ChildPage        *ChildPage       `json:"child_page,omitempty"`
}

type ChildPage struct {
	Title string `json:"title"`
}

type BlockList struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Parent identifies where a created page lives.
type Parent struct {
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}
