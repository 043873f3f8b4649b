// Package store holds the per-role channel sources of a material being
// assembled.
package store

import (
	"image"
	"sync"

	"github.com/sourcetex/matforge/internal/material"
	"github.com/sourcetex/matforge/internal/texture"
)

// entry is one picked channel: its source path and, once decoded, the
// cached bitmap. A cached bitmap always belongs to the path beside it.
type entry struct {
	path string
	img  image.Image
}

// Store maps channel roles to picked source files and caches their decoded
// images. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[material.Role]entry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[material.Role]entry)}
}

// Pick decodes the image at path and assigns it to role. On decode failure
// the previous entry is kept untouched.
func (s *Store) Pick(role material.Role, path string) (image.Image, error) {
	img, err := texture.Decode(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[role] = entry{path: path, img: img}
	s.mu.Unlock()
	return img, nil
}

// SetPath assigns a source path to role without decoding it. Any cached
// bitmap for the role is dropped; the next Get decodes lazily.
func (s *Store) SetPath(role material.Role, path string) {
	s.mu.Lock()
	s.entries[role] = entry{path: path}
	s.mu.Unlock()
}

// Clear removes the channel assigned to role.
func (s *Store) Clear(role material.Role) {
	s.mu.Lock()
	delete(s.entries, role)
	s.mu.Unlock()
}

// Path returns the source path assigned to role, or "" when unassigned.
func (s *Store) Path(role material.Role) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[role].path
}

// Paths returns the source paths of all assigned channels in role order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for _, role := range material.Roles() {
		if e, ok := s.entries[role]; ok {
			paths = append(paths, e.path)
		}
	}
	return paths
}

// Get returns the image for role, or nil when the role is unassigned. With
// useCache the cached bitmap is returned when present; without it the
// source path is re-decoded so current file contents win over a stale
// cache. A fresh decode refreshes the cache either way.
func (s *Store) Get(role material.Role, useCache bool) (image.Image, error) {
	s.mu.RLock()
	e, ok := s.entries[role]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if useCache && e.img != nil {
		return e.img, nil
	}

	img, err := texture.Decode(e.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Refresh only while the entry still points at the decoded source.
	if cur, ok := s.entries[role]; ok && cur.path == e.path {
		s.entries[role] = entry{path: e.path, img: img}
	}
	s.mu.Unlock()
	return img, nil
}

// Channels decodes every assigned channel, keyed by role, as normalizer
// input.
func (s *Store) Channels(useCache bool) (map[material.Role]image.Image, error) {
	out := make(map[material.Role]image.Image)
	for _, role := range material.Roles() {
		img, err := s.Get(role, useCache)
		if err != nil {
			return nil, err
		}
		if img != nil {
			out[role] = img
		}
	}
	return out, nil
}
