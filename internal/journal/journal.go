// Package journal links a daily canvas to its daily note: a Markdown file
// whose identity is derived from the canvas's date key.
package journal

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dailycanvas/internal/apperr"
	"github.com/starford/dailycanvas/internal/canvas"
	"github.com/starford/dailycanvas/internal/storage"
	"github.com/starford/dailycanvas/internal/workspace"
)

// DefaultFolder holds daily notes unless configured otherwise.
const DefaultFolder = "journal"

// Injector creates daily notes and links them into canvases.
type Injector struct {
	store  storage.Provider
	folder string
	size   workspace.Geometry
	logger *slog.Logger
}

// New creates an injector writing notes into folder. Node dimensions
// default to 500x500 when width or height is not positive.
func New(store storage.Provider, folder string, width, height int, logger *slog.Logger) *Injector {
	if folder == "" {
		folder = DefaultFolder
	}
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{
		store:  store,
		folder: folder,
		size:   workspace.Geometry{Width: float64(width), Height: float64(height)},
		logger: logger,
	}
}

type frontmatter struct {
	Title string   `yaml:"title"`
	Date  string   `yaml:"date"`
	Tags  []string `yaml:"tags"`
}

// NotePath returns the daily note path for key.
func (j *Injector) NotePath(key string) string {
	return path.Join(j.folder, key+".md")
}

// Inject ensures the daily note for c's key exists and adds a file node
// pointing at it, saved immediately.
func (j *Injector) Inject(c *workspace.Canvas) error {
	if c == nil {
		return fmt.Errorf("journal: no canvas: %w", apperr.ErrInvariant)
	}
	key := c.Key()
	day, err := time.Parse(canvas.KeyLayout, key)
	if err != nil {
		return fmt.Errorf("journal: canvas %s is not a daily canvas: %w", c.Path, apperr.ErrInapplicable)
	}

	notePath := j.NotePath(key)
	if err := j.ensureNote(notePath, day); err != nil {
		return err
	}
	if _, err := c.CreateFileNode(workspace.FileNodeOptions{
		File:     notePath,
		Geometry: j.size,
		Save:     true,
	}); err != nil {
		return fmt.Errorf("journal: add note node: %w", err)
	}
	j.logger.Info("journal: linked daily note", slog.String("canvas", c.Path), slog.String("note", notePath))
	return nil
}

func (j *Injector) ensureNote(notePath string, day time.Time) error {
	if j.store.Exists(notePath) {
		return nil
	}
	content, err := Render(day)
	if err != nil {
		return err
	}
	if err := j.store.Create(notePath, content); err != nil && !errors.Is(err, apperr.ErrAlreadyExists) {
		return fmt.Errorf("journal: create %s: %w", notePath, err)
	}
	return nil
}

// Render returns the initial content of the daily note for day.
func Render(day time.Time) ([]byte, error) {
	fm, err := yaml.Marshal(frontmatter{
		Title: day.Format("Monday, January 2, 2006"),
		Date:  day.Format(canvas.KeyLayout),
		Tags:  []string{"daily"},
	})
	if err != nil {
		return nil, fmt.Errorf("journal: frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n# ")
	buf.WriteString(day.Format("Monday, January 2, 2006"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
