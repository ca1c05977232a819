// Package pinstore keeps the set of pinned item identifiers and the rotation
// record, persisting both after every mutation and announcing each change
// on the event bus.
package pinstore

import (
	"sort"
	"sync"

	"github.com/starford/dailycanvas/internal/eventbus"
)

// Store is the single source of truth for pin state.
type Store struct {
	blob Blob
	bus  *eventbus.Bus

	mu      sync.RWMutex
	folder  string
	current *string
	pinned  map[string]struct{}
}

// Open loads persisted settings from blob. seedFolder, when non-empty,
// replaces the default folder if the blob does not name one.
func Open(blob Blob, bus *eventbus.Bus, seedFolder string) (*Store, error) {
	raw, err := blob.Load()
	if err != nil {
		return nil, err
	}
	st, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if seedFolder != "" && !hasFolder(raw) {
		st.DailyResourceFolder = seedFolder
	}
	s := &Store{
		blob:    blob,
		bus:     bus,
		folder:  st.DailyResourceFolder,
		current: st.LatestRotationKey,
		pinned:  make(map[string]struct{}, len(st.PinnedItemIDs)),
	}
	for _, id := range st.PinnedItemIDs {
		s.pinned[id] = struct{}{}
	}
	return s, nil
}

// Pin adds id to the pin set.
func (s *Store) Pin(id string) error {
	return s.mutate(func() (undo func()) {
		if _, ok := s.pinned[id]; ok {
			return func() {}
		}
		s.pinned[id] = struct{}{}
		return func() { delete(s.pinned, id) }
	})
}

// Unpin removes id from the pin set.
func (s *Store) Unpin(id string) error {
	return s.mutate(func() (undo func()) {
		if _, ok := s.pinned[id]; !ok {
			return func() {}
		}
		delete(s.pinned, id)
		return func() { s.pinned[id] = struct{}{} }
	})
}

// PinAll pins every id with a single write.
func (s *Store) PinAll(ids []string) error {
	return s.mutate(func() func() {
		var added []string
		for _, id := range ids {
			if _, ok := s.pinned[id]; !ok {
				s.pinned[id] = struct{}{}
				added = append(added, id)
			}
		}
		return func() {
			for _, id := range added {
				delete(s.pinned, id)
			}
		}
	})
}

// UnpinAll unpins every id with a single write.
func (s *Store) UnpinAll(ids []string) error {
	return s.mutate(func() func() {
		var removed []string
		for _, id := range ids {
			if _, ok := s.pinned[id]; ok {
				delete(s.pinned, id)
				removed = append(removed, id)
			}
		}
		return func() {
			for _, id := range removed {
				s.pinned[id] = struct{}{}
			}
		}
	})
}

// Toggle unpins id if pinned and pins it otherwise.
func (s *Store) Toggle(id string) error {
	if s.IsPinned(id) {
		return s.Unpin(id)
	}
	return s.Pin(id)
}

// IsPinned reports whether id is in the pin set.
func (s *Store) IsPinned(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pinned[id]
	return ok
}

// Pinned returns the pinned ids, sorted.
func (s *Store) Pinned() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.pinned))
	for id := range s.pinned {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsLatestRotation reports whether key is the current rotation key.
func (s *Store) IsLatestRotation(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && *s.current == key
}

// CurrentKey returns the current rotation key, if one has been recorded.
func (s *Store) CurrentKey() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return *s.current, true
}

// SetCurrentKey advances the rotation record to key.
func (s *Store) SetCurrentKey(key string) error {
	return s.mutate(func() func() {
		prev := s.current
		k := key
		s.current = &k
		return func() { s.current = prev }
	})
}

// Folder returns the folder daily canvases are created in.
func (s *Store) Folder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folder
}

// SetFolder changes the daily canvas folder.
func (s *Store) SetFolder(folder string) error {
	if folder == "" {
		folder = DefaultFolder
	}
	return s.mutate(func() func() {
		prev := s.folder
		s.folder = folder
		return func() { s.folder = prev }
	})
}

// Snapshot returns the settings as they would be persisted.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Settings {
	ids := make([]string, 0, len(s.pinned))
	for id := range s.pinned {
		ids = append(ids, id)
	}
	var cur *string
	if s.current != nil {
		k := *s.current
		cur = &k
	}
	return Settings{
		DailyResourceFolder: s.folder,
		LatestRotationKey:   cur,
		PinnedItemIDs:       ids,
	}
}

// mutate applies change in memory, persists the whole blob, and publishes
// SettingsChanged. If persisting fails the change is undone so memory never
// diverges from what is on disk.
func (s *Store) mutate(change func() (undo func())) error {
	s.mu.Lock()
	undo := change()
	raw, err := Encode(s.snapshotLocked())
	if err == nil {
		err = s.blob.Save(raw)
	}
	if err != nil {
		undo()
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Topic: eventbus.SettingsChanged, Payload: snap})
	}
	return nil
}
