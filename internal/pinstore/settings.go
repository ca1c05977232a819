package pinstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/starford/dailycanvas/internal/storage"
)

// DefaultFolder is where daily canvases live unless configured otherwise.
const DefaultFolder = "daily-canvas"

// Settings is the persisted blob, read and written wholesale.
type Settings struct {
	DailyResourceFolder string   `json:"dailyResourceFolder"`
	LatestRotationKey   *string  `json:"latestRotationKey"`
	PinnedItemIDs       []string `json:"pinnedItemIds"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		DailyResourceFolder: DefaultFolder,
		PinnedItemIDs:       []string{},
	}
}

// Decode parses a settings blob. Missing or unknown fields fall back to
// defaults; an empty blob is the default settings.
func Decode(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("pinstore: decode settings: %w", err)
	}
	if s.DailyResourceFolder == "" {
		s.DailyResourceFolder = DefaultFolder
	}
	if s.LatestRotationKey != nil && *s.LatestRotationKey == "" {
		s.LatestRotationKey = nil
	}
	if s.PinnedItemIDs == nil {
		s.PinnedItemIDs = []string{}
	}
	return s, nil
}

// hasFolder reports whether the blob names a folder explicitly.
func hasFolder(raw []byte) bool {
	var probe struct {
		Folder *string `json:"dailyResourceFolder"`
	}
	return json.Unmarshal(raw, &probe) == nil && probe.Folder != nil && *probe.Folder != ""
}

// Encode serializes s. Pinned ids are emitted sorted so the file is stable.
func Encode(s Settings) ([]byte, error) {
	ids := append([]string(nil), s.PinnedItemIDs...)
	sort.Strings(ids)
	if ids == nil {
		ids = []string{}
	}
	s.PinnedItemIDs = ids
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pinstore: encode settings: %w", err)
	}
	return out, nil
}

// Blob is the host's persisted-data primitive.
type Blob interface {
	Load() ([]byte, error)
	Save(raw []byte) error
}

// VaultBlob stores the settings blob as a file inside the vault.
type VaultBlob struct {
	Store storage.Provider
	Path  string
}

// Load returns the blob content; a missing file is an empty blob.
func (b VaultBlob) Load() ([]byte, error) {
	raw, err := b.Store.Read(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return raw, err
}

// Save replaces the blob content.
func (b VaultBlob) Save(raw []byte) error {
	return b.Store.Write(b.Path, raw)
}
