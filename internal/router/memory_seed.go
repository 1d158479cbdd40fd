package router

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/anonto42/reaction-ledger/internal/models"
	"github.com/anonto42/reaction-ledger/internal/repositories/memory"
	"github.com/anonto42/reaction-ledger/internal/services"
)

// MemorySeed is the fixture the memory driver starts with.
// Entities are keyed by kind in any accepted spelling ("videos", "POST").
type MemorySeed struct {
	Users    []models.UserCompact    `json:"users"`
	Entities map[string][]SeedEntity `json:"entities"`
}

// SeedEntity is one content document of a MemorySeed
type SeedEntity struct {
	ID  string         `json:"id"`
	Doc map[string]any `json:"doc"`
	// Text holds the searchable fields. Empty means every string field of Doc.
	Text []string `json:"text"`
}

// ReadMemorySeed decodes a seed file
func ReadMemorySeed(path string) (*MemorySeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory seed: %w", err)
	}
	var seed MemorySeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode memory seed %s: %w", path, err)
	}
	return &seed, nil
}

// SeedMemoryStores loads seed into stores built by MemoryStores
func SeedMemoryStores(stores *Stores, seed *MemorySeed) error {
	users, ok := stores.Users.(*memory.UserDirectory)
	if !ok {
		return fmt.Errorf("user directory %T is not an in-memory store", stores.Users)
	}
	for _, u := range seed.Users {
		if u.ID == 0 {
			return fmt.Errorf("seed user %q has no id", u.Name)
		}
		users.Put(u)
	}

	byKind := make(map[models.EntityKind]*memory.EntityStore, len(stores.Entities))
	for _, s := range stores.Entities {
		if ms, ok := s.(*memory.EntityStore); ok {
			byKind[s.Kind()] = ms
		}
	}
	for raw, entities := range seed.Entities {
		kind, ok := services.ParseKind(raw)
		if !ok {
			return fmt.Errorf("seed kind %q is not a known entity kind", raw)
		}
		store, ok := byKind[kind]
		if !ok {
			return fmt.Errorf("no in-memory store for %s", kind)
		}
		for _, e := range entities {
			if !store.ValidID(e.ID) {
				return fmt.Errorf("seed %s id %q is malformed", kind, e.ID)
			}
			text := e.Text
			if len(text) == 0 {
				text = stringFields(e.Doc)
			}
			store.Put(e.ID, e.Doc, text...)
		}
	}
	return nil
}

func stringFields(doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		if s, ok := doc[k].(string); ok {
			out = append(out, s)
		}
	}
	return out
}
