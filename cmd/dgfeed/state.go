// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dgfeed/dgfeed/internal/atomicio"
)

// stateStore persists the set of processed article IDs for each feed as a
// JSON file in dir.
type stateStore struct {
	dir string
}

func (s *stateStore) path(name string) string {
	return filepath.Join(s.dir, "processed-"+name+".json")
}

// load reads the processed set for the named feed. A missing state file is
// not an error and yields an empty set.
func (s *stateStore) load(name string) (*processedSet, error) {
	set := &processedSet{ids: make(map[string]struct{})}

	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return set, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("state file %s is corrupted: %w", s.path(name), err)
	}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set, nil
}

// save atomically writes the processed set for the named feed.
func (s *stateStore) save(name string, set *processedSet) error {
	ids := make([]string, 0, len(set.ids))
	for id := range set.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	b, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(s.path(name), append(b, '\n'), 0o644)
}

// processedSet is the set of article IDs already posted for a feed.
type processedSet struct {
	ids map[string]struct{}
}

func (p *processedSet) has(id string) bool {
	_, ok := p.ids[id]
	return ok
}

// add inserts id into the set and reports whether it was newly added.
func (p *processedSet) add(id string) bool {
	if p.has(id) {
		return false
	}
	p.ids[id] = struct{}{}
	return true
}

func (p *processedSet) len() int { return len(p.ids) }
