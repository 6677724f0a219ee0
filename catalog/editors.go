package catalog

import (
	"context"
	"sync"
)

// Editors keeps one working copy per administrator.
type Editors struct {
	mu      sync.Mutex
	reader  Reader
	byOwner map[string]*Editor
}

func NewEditors(r Reader) *Editors {
	return &Editors{
		reader:  r,
		byOwner: make(map[string]*Editor),
	}
}

// Get returns the owner's editor, loading the catalog on first use.
// The store is read without holding the lock; when two first requests
// race, the editor stored first wins.
func (e *Editors) Get(ctx context.Context, owner string) *Editor {
	e.mu.Lock()
	ed, ok := e.byOwner[owner]
	e.mu.Unlock()
	if ok {
		return ed
	}

	loaded := NewEditor(Load(ctx, e.reader))

	e.mu.Lock()
	defer e.mu.Unlock()
	if ed, ok := e.byOwner[owner]; ok {
		return ed
	}
	e.byOwner[owner] = loaded
	return loaded
}

func (e *Editors) Drop(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.byOwner, owner)
}
