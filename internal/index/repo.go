package index

import (
	"fmt"
	"time"

	"github.com/starford/dailycanvas/internal/models"
)

// CanvasRow represents a row in the canvases table.
type CanvasRow struct {
	Path        string
	RotationKey string
	Checksum    string
	NodeCount   int
	UpdatedAt   time.Time
}

// ItemRow represents one indexed canvas item.
type ItemRow struct {
	Path string `json:"path"`
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Snippet string `json:"snippet"`
}

// UpsertCanvas replaces a canvas row, its items, and their FTS entries
// within a transaction.
func (db *DB) UpsertCanvas(c CanvasRow, items []ItemRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO canvases (path, rotation_key, checksum, node_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			rotation_key = excluded.rotation_key,
			checksum     = excluded.checksum,
			node_count   = excluded.node_count,
			updated_at   = excluded.updated_at
	`, c.Path, c.RotationKey, c.Checksum, c.NodeCount, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert canvas: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM items WHERE path = ?`, c.Path)
	ftsDelete(tx, c.Path)
	if len(items) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO items (path, id, kind, text) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare item insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range items {
			if _, err := stmt.Exec(c.Path, it.ID, it.Kind, it.Text); err != nil {
				return fmt.Errorf("index: insert item: %w", err)
			}
			if err := ftsInsert(tx, c.Path, it); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteCanvas removes a canvas, its items, and their FTS entries.
func (db *DB) DeleteCanvas(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM items WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM canvases WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a canvas, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM canvases WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed canvas.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM canvases`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Items returns the indexed items of one canvas in id order.
func (db *DB) Items(path string) ([]ItemRow, error) {
	rows, err := db.conn.Query(`SELECT path, id, kind, text FROM items WHERE path = ? ORDER BY id`, path)
	if err != nil {
		return nil, fmt.Errorf("index: items: %w", err)
	}
	defer rows.Close()

	out := []ItemRow{}
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.Path, &it.ID, &it.Kind, &it.Text); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Rotations returns daily canvases newest first. limit <= 0 means all.
func (db *DB) Rotations(limit int) ([]models.Rotation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT rotation_key, path, node_count, updated_at
		FROM canvases
		WHERE rotation_key != ''
		ORDER BY rotation_key DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: rotations: %w", err)
	}
	defer rows.Close()

	out := []models.Rotation{}
	for rows.Next() {
		var r models.Rotation
		if err := rows.Scan(&r.Key, &r.Path, &r.NodeCount, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
