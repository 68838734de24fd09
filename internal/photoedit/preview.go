package photoedit

import (
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/design-gallery/internal/domain"
)

const handleScheme = "blob:"

// Handle is an opaque, revocable reference to a not yet uploaded file.
type Handle string

// ID returns the handle's token without its scheme, suitable for URLs.
func (h Handle) ID() string {
	return strings.TrimPrefix(string(h), handleScheme)
}

// Previews owns the preview handles of one edit session.
// It is not safe for concurrent use; Session serializes access.
type Previews struct {
	blobs    map[Handle]domain.PhotoFile
	created  int
	released int
}

// NewPreviews creates an empty preview registry.
func NewPreviews() *Previews {
	return &Previews{blobs: make(map[Handle]domain.PhotoFile)}
}

// Create allocates a handle for file. The handle must later be passed to Release.
func (p *Previews) Create(file domain.PhotoFile) Handle {
	h := Handle(handleScheme + uuid.NewString())
	p.blobs[h] = file
	p.created++
	return h
}

// Release revokes h. Releasing a handle twice, or one that was not created
// by this registry, is a no-op and reports false.
func (p *Previews) Release(h Handle) bool {
	if !strings.HasPrefix(string(h), handleScheme) {
		return false
	}
	if _, ok := p.blobs[h]; !ok {
		return false
	}
	delete(p.blobs, h)
	p.released++
	return true
}

// ReleaseAll revokes every live handle and returns how many were released.
func (p *Previews) ReleaseAll() int {
	n := 0
	for h := range p.blobs {
		if p.Release(h) {
			n++
		}
	}
	return n
}

// Lookup returns the file behind a live handle, addressed by its ID.
func (p *Previews) Lookup(id string) (domain.PhotoFile, bool) {
	f, ok := p.blobs[Handle(handleScheme+id)]
	return f, ok
}

// Created returns the number of handles ever created.
func (p *Previews) Created() int { return p.created }

// Released returns the number of handles released.
func (p *Previews) Released() int { return p.released }

// Live returns the number of handles not yet released.
func (p *Previews) Live() int { return len(p.blobs) }
