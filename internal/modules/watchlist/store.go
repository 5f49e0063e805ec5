// Package watchlist persists the operator's favourite items as a plain text file.
package watchlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Store keeps the watchlist in memory and rewrites the file on every change.
type Store struct {
	mu    sync.RWMutex
	path  string
	items []string
	log   zerolog.Logger
}

// NewStore creates a store backed by path. Call Load to read existing entries.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "watchlist").Logger(),
	}
}

// Load reads the file, one entry per line. A missing file is an empty list.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open watchlist: %w", err)
	}
	defer f.Close()

	var items []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		item := strings.TrimSpace(scanner.Text())
		if item == "" {
			continue
		}
		key := strings.ToUpper(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read watchlist: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.log.Debug().Int("items", len(items)).Str("path", s.path).Msg("Watchlist loaded")
	return nil
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends the trimmed, upper-cased item unless it is already listed.
func (s *Store) Add(item string) (bool, error) {
	item = strings.ToUpper(strings.TrimSpace(item))
	if item == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if strings.EqualFold(existing, item) {
			return false, nil
		}
	}

	next := append(append([]string(nil), s.items...), item)
	if err := s.save(next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

// Remove deletes an entry, matching case-insensitively.
func (s *Store) Remove(item string) (bool, error) {
	item = strings.TrimSpace(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.items))
	removed := false
	for _, existing := range s.items {
		if !removed && strings.EqualFold(existing, item) {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	if !removed {
		return false, nil
	}

	if err := s.save(next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

// save writes items to a temp file and renames it over the watchlist.
func (s *Store) save(items []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watchlist directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watchlist-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp watchlist: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, item := range items {
		if _, err := w.WriteString(item + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write watchlist: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write watchlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp watchlist: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace watchlist: %w", err)
	}
	return nil
}
