package media

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cutline/internal/source"
)

// Type classifies the decoded asset.
type Type string

const (
	TypeVideo   Type = "video"
	TypeImage   Type = "image"
	TypeAudio   Type = "audio"
	TypeText    Type = "text"
	TypeUnknown Type = "unknown"
)

// ClipHandle is an opaque reference to a decode-engine clip. Handles are
// exclusively owned; duplicating a timeline item clones the handle rather
// than sharing it.
type ClipHandle interface {
	ID() string
	Clone() ClipHandle
	Release()
}

// DecodedObjects carries what the decode engine produced for a ready item.
type DecodedObjects struct {
	Clip ClipHandle
	// PosterFramePath points at the extracted poster frame used for
	// thumbnail derivation; empty for audio.
	PosterFramePath string
	Width           int
	Height          int
	HasAudio        bool
}

// Clone deep-copies the decoded objects, cloning the clip handle.
func (d *DecodedObjects) Clone() *DecodedObjects {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Clip != nil {
		cp.Clip = d.Clip.Clone()
	}
	return &cp
}

// Metadata is what the decode step reports for an asset.
type Metadata struct {
	Type           Type
	DurationFrames int64
	Width          int
	Height         int
	HasAudio       bool
}

// Item is one imported asset and its readiness lifecycle.
type Item struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Status    Status
	Type      Type
	Source    *source.Data

	// DurationFrames and Decoded are populated before the transition to
	// ready is applied; the transition checks the invariant, it does not
	// compute them.
	DurationFrames int64
	Decoded        *DecodedObjects
}

// NewItem builds a pending media item around a data source.
func NewItem(name string, src *source.Data) *Item {
	return &Item{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Status:    StatusPending,
		Type:      TypeUnknown,
		Source:    src,
	}
}

// Clone returns a deep copy. The clip handle is cloned, never shared.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Source = i.Source.Clone()
	cp.Decoded = i.Decoded.Clone()
	return &cp
}

// DisplayNameFromFilename derives a human-facing item name from a file name
// or Content-Disposition suggestion: extension stripped, separators spaced,
// title-cased.
func DisplayNameFromFilename(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == "/" || base == "" {
		return "Untitled"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	return cases.Title(language.Und, cases.NoLower).String(base)
}
