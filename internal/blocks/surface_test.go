package blocks

import (
	"strings"
	"testing"

	"github.com/user/flowblocs/internal/db"
)

func boolPtr(v bool) *bool { return &v }

func sampleBlocks() []db.Block {
	return []db.Block{
		{ID: db.RemoteBlockID("b1"), Type: "heading_1", Content: "Plan", Position: 0},
		{ID: db.RemoteBlockID("b2"), Type: "paragraph", Content: "Intro & scope", Position: 1},
		{ID: db.RemoteBlockID("b3"), Type: "bulleted_list_item", Content: "first", Position: 2},
		{ID: db.RemoteBlockID("b4"), Type: "numbered_list_item", Content: "second", Position: 3},
		{ID: db.RemoteBlockID("b5"), Type: "to_do", Content: "Task", Metadata: db.BlockMetadata{Checked: boolPtr(true)}, Position: 4},
		{ID: db.RemoteBlockID("b6"), Type: "quote", Content: "Wise words", Position: 5},
		{ID: db.RemoteBlockID("b7"), Type: "code", Content: "x := 1", Metadata: db.BlockMetadata{Language: "go"}, Position: 6},
		{ID: db.RemoteBlockID("b8"), Type: "divider", Position: 7},
	}
}

func TestRenderCarriesIdentity(t *testing.T) {
	surface := Render(sampleBlocks())

	for _, want := range []string{
		`data-block-id="b1"`,
		`data-block-type="heading_1"`,
		`data-block-type="to_do"`,
		`data-language="go"`,
		`data-numbered="true"`,
		`<input type="checkbox" checked disabled>`,
		"Intro &amp; scope",
	} {
		if !strings.Contains(surface, want) {
			t.Errorf("surface missing %q:\n%s", want, surface)
		}
	}
}

func TestSurfaceRoundTrip(t *testing.T) {
	original := sampleBlocks()
	got, err := ParseSurface(Render(original))
	if err != nil {
		t.Fatalf("ParseSurface: %v", err)
	}
	if len(got) != len(original) {
		t.Fatalf("blocks: got %d, want %d", len(got), len(original))
	}
	for i, b := range got {
		want := original[i]
		if b.ID.Remote() != want.ID.Remote() {
			t.Errorf("[%d] id: got %q, want %q", i, b.ID.Remote(), want.ID.Remote())
		}
		if b.Type != want.Type {
			t.Errorf("[%d] type: got %q, want %q", i, b.Type, want.Type)
		}
		if b.Content != want.Content {
			t.Errorf("[%d] content: got %q, want %q", i, b.Content, want.Content)
		}
		if b.Position != i {
			t.Errorf("[%d] position: got %d", i, b.Position)
		}
	}
	if got[4].Metadata.Checked == nil || !*got[4].Metadata.Checked {
		t.Error("to_do checked lost in round trip")
	}
	if got[6].Metadata.Language != "go" {
		t.Errorf("code language: got %q", got[6].Metadata.Language)
	}
}

func TestParseSurfaceAssignsPendingIDs(t *testing.T) {
	surface := `<p data-block-id="b1" data-block-type="paragraph">old</p>` +
		`<p data-block-type="paragraph">brand new</p>`

	got, err := ParseSurface(surface)
	if err != nil {
		t.Fatalf("ParseSurface: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("blocks: got %d, want 2", len(got))
	}
	if got[0].ID.IsPending() {
		t.Error("existing block misread as pending")
	}
	if !got[1].ID.IsPending() {
		t.Error("new block should be pending")
	}
	if !strings.HasPrefix(got[1].ID.String(), "new-") {
		t.Errorf("pending surface form: got %q", got[1].ID.String())
	}
}

func TestParseSurfaceDropsEmptyBlocks(t *testing.T) {
	surface := `<p data-block-id="b1" data-block-type="paragraph">keep</p>` +
		`<p data-block-id="b2" data-block-type="paragraph">   </p>` +
		`<hr data-block-id="b3" data-block-type="divider">`

	got, err := ParseSurface(surface)
	if err != nil {
		t.Fatalf("ParseSurface: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("blocks: got %d, want 2", len(got))
	}
	if got[0].ID.Remote() != "b1" || got[1].ID.Remote() != "b3" {
		t.Errorf("got %s, %s", got[0].ID, got[1].ID)
	}
	// Positions are re-densified after the drop.
	if got[1].Position != 1 {
		t.Errorf("position: got %d, want 1", got[1].Position)
	}
}

func TestParseSurfaceFoldsUnknownTypes(t *testing.T) {
	surface := `<p data-block-id="b1" data-block-type="toggle">mystery</p>`

	got, err := ParseSurface(surface)
	if err != nil {
		t.Fatalf("ParseSurface: %v", err)
	}
	if len(got) != 1 || got[0].Type != "paragraph" {
		t.Fatalf("got %+v, want paragraph", got)
	}
	if got[0].Content != "mystery" {
		t.Errorf("content: got %q", got[0].Content)
	}
}

func TestParseSurfaceDefaultsCodeLanguage(t *testing.T) {
	surface := `<pre data-block-id="b1" data-block-type="code"><code>ls</code></pre>`

	got, err := ParseSurface(surface)
	if err != nil {
		t.Fatalf("ParseSurface: %v", err)
	}
	if got[0].Metadata.Language != "plain text" {
		t.Errorf("language: got %q, want %q", got[0].Metadata.Language, "plain text")
	}
}
