package db

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/user/flowblocs/internal/notion"
)

type Database struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Icon       string    `json:"icon,omitempty"`
	URL        string    `json:"url,omitempty"`
	PageCount  int       `json:"page_count"`
	LastSynced time.Time `json:"last_synced"`
}

type Page struct {
	ID          string                          `json:"id"`
	Title       string                          `json:"title"`
	Icon        string                          `json:"icon,omitempty"`
	Cover       string                          `json:"cover,omitempty"`
	URL         string                          `json:"url,omitempty"`
	Properties  map[string]notion.PropertyValue `json:"properties,omitempty"`
	DatabaseID  string                          `json:"database_id,omitempty"`
	ParentID    string                          `json:"parent_id,omitempty"`
	HasChildren bool                            `json:"has_children"`
	ChildCount  int                             `json:"child_count"`
	ObjectType  string                          `json:"object_type"`
	DepthLevel  int                             `json:"depth_level"`
	Valid       bool                            `json:"valid"`
	LastSynced  time.Time                       `json:"last_synced"`
}

// pendingPrefix marks a locally created block on the stringly-typed edit
// surface. It never appears in the cache; ParseBlockID folds it back into
// the Pending variant at the reverse-parse boundary.
const pendingPrefix = "new-"

// BlockID distinguishes blocks that exist remotely from blocks created
// locally and not yet persisted. The zero value is pending with no token.
type BlockID struct {
	remote string
	local  string
}

func RemoteBlockID(id string) BlockID {
	return BlockID{remote: id}
}

func PendingBlockID(token string) BlockID {
	return BlockID{local: token}
}

// ParseBlockID maps a surface attribute value back to a BlockID. An empty
// value or the local marker prefix means the block has no remote identity.
func ParseBlockID(s string) BlockID {
	if s == "" {
		return BlockID{}
	}
	if strings.HasPrefix(s, pendingPrefix) {
		return PendingBlockID(strings.TrimPrefix(s, pendingPrefix))
	}
	return RemoteBlockID(s)
}

func (id BlockID) IsPending() bool {
	return id.remote == ""
}

// Remote returns the remote identity, or "" for a pending block.
func (id BlockID) Remote() string {
	return id.remote
}

// String renders the id for the edit surface: the remote id as-is, pending
// ids with the local marker prefix.
func (id BlockID) String() string {
	if id.remote != "" {
		return id.remote
	}
	if id.local == "" {
		return ""
	}
	return pendingPrefix + id.local
}

// MarshalJSON renders the surface form so cached blocks serialize the way
// the edit surface spells them.
func (id BlockID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *BlockID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = ParseBlockID(s)
	return nil
}

type BlockMetadata struct {
	Checked  *bool  `json:"checked,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Block struct {
	ID          BlockID       `json:"id"`
	Type        string        `json:"type"`
	Content     string        `json:"content,omitempty"`
	HasChildren bool          `json:"has_children"`
	Metadata    BlockMetadata `json:"metadata,omitempty"`
	Position    int           `json:"position"`
	LastSynced  time.Time     `json:"last_synced"`
}

// CanvasNode is one page placed on the canvas.
type CanvasNode struct {
	ID         string    `json:"id"`
	PageID     string    `json:"page_id"`
	DatabaseID string    `json:"database_id,omitempty"`
	Title      string    `json:"title"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	UpdatedAt  time.Time `json:"updated_at"`
}
