// Package materialdir is the in-memory material master-data directory. The
// workflow engine only consumes it as a lookup; maintenance of the master
// data itself lives outside this system.
package materialdir

import (
	"context"
	"sort"
	"sync"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

// Directory holds material records keyed by ID
type Directory struct {
	mu        sync.RWMutex
	materials map[string]entity.Material
}

// New creates a directory seeded with the given materials
func New(seed []entity.Material) *Directory {
	d := &Directory{materials: make(map[string]entity.Material, len(seed))}
	for _, m := range seed {
		d.materials[m.ID] = m
	}
	return d
}

// Lookup returns the material with the given ID, or an entity.ErrNotFound error
func (d *Directory) Lookup(_ context.Context, id string) (entity.Material, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.materials[id]
	if !ok {
		return entity.Material{}, &entity.DocumentError{
			Kind:    entity.ErrNotFound,
			DocType: "material",
			Number:  id,
			Op:      "lookup",
		}
	}
	return m, nil
}

// Put adds or replaces a material record
func (d *Directory) Put(m entity.Material) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.materials[m.ID] = m
}

// List returns all materials ordered by ID
func (d *Directory) List() []entity.Material {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]entity.Material, 0, len(d.materials))
	for _, m := range d.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
