package proverb

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Proverb is a single Yoruba proverb with its English rendering.
type Proverb struct {
	ID          int      `json:"id"`
	Proverb     string   `json:"proverb"`
	Translation string   `json:"translation"`
	Wisdom      string   `json:"wisdom"`
	Tags        []string `json:"tags,omitempty"`
	AudioURL    string   `json:"audioUrl,omitempty"`
}

// Collection is an immutable, ordered set of proverbs with random access.
// It owns its RNG so callers share one seeded source instead of package state.
type Collection struct {
	items []Proverb
	byID  map[int]Proverb

	mu  sync.Mutex
	rng *rand.Rand
}

//go:embed proverbs.json
var proverbsJSON []byte

// Load parses the embedded proverb data into a Collection.
func Load() (*Collection, error) {
	var data struct {
		Proverbs []Proverb `json:"proverbs"`
	}
	if err := json.Unmarshal(proverbsJSON, &data); err != nil {
		return nil, fmt.Errorf("parse proverbs data: %w", err)
	}
	return NewCollection(data.Proverbs)
}

// NewCollection builds a Collection from the given proverbs.
func NewCollection(items []Proverb) (*Collection, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("proverb collection is empty")
	}
	byID := make(map[int]Proverb, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	return &Collection{
		items: items,
		byID:  byID,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Len returns the number of proverbs.
func (c *Collection) Len() int { return len(c.items) }

// ByID returns the proverb with the given id.
func (c *Collection) ByID(id int) (Proverb, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Random returns a uniformly chosen proverb. Safe for concurrent use.
func (c *Collection) Random() Proverb {
	c.mu.Lock()
	i := c.rng.Intn(len(c.items))
	c.mu.Unlock()
	return c.items[i]
}
