package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/user/flowblocs/internal/notion"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store is the persistent mirror of remote workspace content: one logical
// table per collection kind, each row stamped with last_synced. Rows are
// only written by the sync engine, and always replace-per-key, never merged
// field by field.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "flowblocs.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS databases_cache (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		icon TEXT,
		url TEXT,
		page_count INTEGER DEFAULT 0,
		last_synced TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages_cache (
		id TEXT PRIMARY KEY,
		database_id TEXT,
		parent_id TEXT,
		title TEXT NOT NULL,
		icon TEXT,
		cover TEXT,
		url TEXT,
		properties TEXT,
		has_children INTEGER DEFAULT 0,
		child_count INTEGER DEFAULT 0,
		object_type TEXT DEFAULT 'page',
		depth_level INTEGER DEFAULT 0,
		valid INTEGER DEFAULT 0,
		last_synced TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_database ON pages_cache(database_id);
	CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages_cache(parent_id);

	CREATE TABLE IF NOT EXISTS blocks_cache (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT,
		has_children INTEGER DEFAULT 0,
		metadata TEXT,
		position INTEGER NOT NULL,
		last_synced TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_page ON blocks_cache(page_id);

	CREATE TABLE IF NOT EXISTS canvas_nodes (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL,
		database_id TEXT,
		title TEXT,
		x REAL NOT NULL,
		y REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ListDatabases returns all cached databases, most recently synced first.
func (s *Store) ListDatabases() ([]Database, error) {
	rows, err := s.db.Query(`SELECT id, title, icon, url, page_count, last_synced FROM databases_cache ORDER BY last_synced DESC, title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDatabases(rows)
}

// SearchDatabases returns cached databases whose title contains the query,
// case-insensitively.
func (s *Store) SearchDatabases(query string) ([]Database, error) {
	rows, err := s.db.Query(
		`SELECT id, title, icon, url, page_count, last_synced FROM databases_cache
		 WHERE title LIKE '%' || ? || '%' COLLATE NOCASE
		 ORDER BY last_synced DESC, title ASC`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDatabases(rows)
}

func scanDatabases(rows *sql.Rows) ([]Database, error) {
	var databases []Database
	for rows.Next() {
		var d Database
		var icon, url sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &icon, &url, &d.PageCount, &d.LastSynced); err != nil {
			return nil, err
		}
		d.Icon = icon.String
		d.URL = url.String
		databases = append(databases, d)
	}
	return databases, rows.Err()
}

// DeleteDatabases clears the database collection ahead of a refresh.
func (s *Store) DeleteDatabases() error {
	_, err := s.db.Exec(`DELETE FROM databases_cache`)
	return err
}

func (s *Store) UpsertDatabase(d *Database) error {
	_, err := s.db.Exec(`
		INSERT INTO databases_cache (id, title, icon, url, page_count, last_synced)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			icon = excluded.icon,
			url = excluded.url,
			page_count = excluded.page_count,
			last_synced = excluded.last_synced`,
		d.ID, d.Title, d.Icon, d.URL, d.PageCount, d.LastSynced)
	return err
}

// SetDatabasePageCount updates the page count on an existing database row
// without touching its freshness stamp.
func (s *Store) SetDatabasePageCount(databaseID string, count int) error {
	_, err := s.db.Exec(`UPDATE databases_cache SET page_count = ? WHERE id = ?`, count, databaseID)
	return err
}

const pageColumns = `id, database_id, parent_id, title, icon, cover, url, properties, has_children, child_count, object_type, depth_level, valid, last_synced`

// PagesByDatabase returns all cached pages of one database, including pages
// that failed the validity filter.
func (s *Store) PagesByDatabase(databaseID string) ([]Page, error) {
	rows, err := s.db.Query(
		`SELECT `+pageColumns+` FROM pages_cache WHERE database_id = ? ORDER BY title ASC`, databaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPages(rows)
}

// ChildPages returns the cached children of a page, ordered by title.
func (s *Store) ChildPages(parentID string) ([]Page, error) {
	rows, err := s.db.Query(
		`SELECT `+pageColumns+` FROM pages_cache WHERE parent_id = ? ORDER BY title ASC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPages(rows)
}

func (s *Store) GetPage(id string) (*Page, error) {
	row := s.db.QueryRow(`SELECT `+pageColumns+` FROM pages_cache WHERE id = ?`, id)
	p, err := scanPage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*Page, error) {
	var p Page
	var dbID, parentID, icon, cover, url, props sql.NullString
	err := row.Scan(&p.ID, &dbID, &parentID, &p.Title, &icon, &cover, &url, &props,
		&p.HasChildren, &p.ChildCount, &p.ObjectType, &p.DepthLevel, &p.Valid, &p.LastSynced)
	if err != nil {
		return nil, err
	}
	p.DatabaseID = dbID.String
	p.ParentID = parentID.String
	p.Icon = icon.String
	p.Cover = cover.String
	p.URL = url.String
	if props.String != "" {
		var properties map[string]notion.PropertyValue
		if err := json.Unmarshal([]byte(props.String), &properties); err == nil {
			p.Properties = properties
		}
	}
	return &p, nil
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// DeletePages clears a database's page collection ahead of a refresh.
func (s *Store) DeletePages(databaseID string) error {
	_, err := s.db.Exec(`DELETE FROM pages_cache WHERE database_id = ?`, databaseID)
	return err
}

func (s *Store) UpsertPage(p *Page) error {
	var props any
	if len(p.Properties) > 0 {
		encoded, err := json.Marshal(p.Properties)
		if err != nil {
			return err
		}
		props = string(encoded)
	}
	_, err := s.db.Exec(`
		INSERT INTO pages_cache (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			database_id = excluded.database_id,
			parent_id = excluded.parent_id,
			title = excluded.title,
			icon = excluded.icon,
			cover = excluded.cover,
			url = excluded.url,
			properties = excluded.properties,
			has_children = excluded.has_children,
			child_count = excluded.child_count,
			object_type = excluded.object_type,
			depth_level = excluded.depth_level,
			valid = excluded.valid,
			last_synced = excluded.last_synced`,
		p.ID, p.DatabaseID, p.ParentID, p.Title, p.Icon, p.Cover, p.URL, props,
		p.HasChildren, p.ChildCount, p.ObjectType, p.DepthLevel, p.Valid, p.LastSynced)
	return err
}

// BlocksByPage returns a page's cached blocks in position order.
func (s *Store) BlocksByPage(pageID string) ([]Block, error) {
	rows, err := s.db.Query(
		`SELECT id, type, content, has_children, metadata, position, last_synced
		 FROM blocks_cache WHERE page_id = ? ORDER BY position ASC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		var id string
		var content, metadata sql.NullString
		if err := rows.Scan(&id, &b.Type, &content, &b.HasChildren, &metadata, &b.Position, &b.LastSynced); err != nil {
			return nil, err
		}
		b.ID = RemoteBlockID(id)
		b.Content = content.String
		if metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &b.Metadata)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// DeleteBlocks clears a page's block collection ahead of a refresh, and is
// also how the sync engine invalidates a page after a save.
func (s *Store) DeleteBlocks(pageID string) error {
	_, err := s.db.Exec(`DELETE FROM blocks_cache WHERE page_id = ?`, pageID)
	return err
}

func (s *Store) InsertBlock(pageID string, b *Block) error {
	var metadata any
	if b.Metadata != (BlockMetadata{}) {
		encoded, err := json.Marshal(b.Metadata)
		if err != nil {
			return err
		}
		metadata = string(encoded)
	}
	_, err := s.db.Exec(`
		INSERT INTO blocks_cache (id, page_id, type, content, has_children, metadata, position, last_synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			page_id = excluded.page_id,
			type = excluded.type,
			content = excluded.content,
			has_children = excluded.has_children,
			metadata = excluded.metadata,
			position = excluded.position,
			last_synced = excluded.last_synced`,
		b.ID.Remote(), pageID, b.Type, b.Content, b.HasChildren, metadata, b.Position, b.LastSynced)
	return err
}

// ListCanvasNodes returns the persisted canvas layout.
func (s *Store) ListCanvasNodes() ([]CanvasNode, error) {
	rows, err := s.db.Query(`SELECT id, page_id, database_id, title, x, y, updated_at FROM canvas_nodes ORDER BY updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []CanvasNode
	for rows.Next() {
		var n CanvasNode
		var dbID, title sql.NullString
		if err := rows.Scan(&n.ID, &n.PageID, &dbID, &title, &n.X, &n.Y, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.DatabaseID = dbID.String
		n.Title = title.String
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ReplaceCanvasNodes persists the full canvas layout, replacing whatever
// was stored before. The canvas board flushes its whole state at once so a
// reader never sees a half-written layout.
func (s *Store) ReplaceCanvasNodes(nodes []CanvasNode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM canvas_nodes`); err != nil {
		tx.Rollback()
		return err
	}
	for _, n := range nodes {
		if _, err := tx.Exec(
			`INSERT INTO canvas_nodes (id, page_id, database_id, title, x, y, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.PageID, n.DatabaseID, n.Title, n.X, n.Y, n.UpdatedAt); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value)
	return err
}
