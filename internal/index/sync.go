package index

import (
	"log/slog"
	"time"

	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed canvases are parsed and upserted
//   - canvases removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("", canvas.Ext)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteCanvas(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses canvas data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	d, err := canvas.Parse(data)
	if err != nil {
		return err
	}
	row := CanvasRow{
		Path:        path,
		RotationKey: RotationKey(path),
		Checksum:    storage.Checksum(data),
		NodeCount:   len(d.Nodes),
		UpdatedAt:   time.Now().UTC(),
	}
	items := make([]ItemRow, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		items = append(items, ItemRow{Path: path, ID: n.ID, Kind: n.Type, Text: ItemText(n)})
	}
	return db.UpsertCanvas(row, items)
}

// RotationKey returns the date key of a daily canvas path, or "" when the
// file name is not a date.
func RotationKey(path string) string {
	key := canvas.KeyFromPath(path)
	if _, err := time.Parse(canvas.KeyLayout, key); err != nil {
		return ""
	}
	return key
}

// ItemText is the searchable text of a node.
func ItemText(n canvas.Node) string {
	switch n.Type {
	case canvas.KindFile:
		return n.File
	case canvas.KindLink:
		return n.URL
	case canvas.KindGroup:
		return n.Label
	default:
		return n.Text
	}
}
