package entity

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idPrefix = "note_"

// Note is a single note record as seen by a device.
//
// UpdatedAt is the authority for merge ordering. Synced is local-only and
// DeletedAt is only ever set by the remote store.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Pinned    bool       `json:"pinned"`
	Favorite  bool       `json:"favorite"`
	Tags      []string   `json:"tags"`
	Synced    bool       `json:"synced"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// NewNote returns an empty note with a fresh id and a dated default title.
func NewNote(now time.Time) Note {
	now = now.UTC()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return Note{
		ID:        idPrefix + uuid.NewString(),
		Title:     now.Format(time.DateOnly) + "_" + suffix,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}
}

func (n Note) Validate() error {
	if n.ID == "" || n.Title == "" {
		return ErrMissingFields
	}

	return nil
}

func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// MatchesTitle reports whether the title contains term, ignoring case.
// An empty term matches every note.
func (n Note) MatchesTitle(term string) bool {
	return strings.Contains(strings.ToLower(n.Title), strings.ToLower(term))
}

// WithTag appends tag keeping insertion order; an existing tag is a no-op.
func (n Note) WithTag(tag string) Note {
	if tag == "" || n.HasTag(tag) {
		return n
	}

	n.Tags = append(slices.Clone(n.Tags), tag)
	return n
}

func (n Note) WithoutTag(tag string) Note {
	n.Tags = slices.DeleteFunc(slices.Clone(n.Tags), func(t string) bool { return t == tag })
	return n
}

// SortForDisplay orders pinned notes first, then the most recently updated.
func SortForDisplay(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}

		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}

// NoteFilter narrows a remote listing. Set fields are AND-ed.
type NoteFilter struct {
	Tag      string
	Pinned   *bool
	Favorite *bool
}

// RemoteNote is the record kept by the remote store, one per (UserID, NoteID).
type RemoteNote struct {
	UserID     string     `json:"userId"`
	NoteID     string     `json:"noteId"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags"`
	Pinned     bool       `json:"pinned"`
	Favorite   bool       `json:"favorite"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	LastSynced time.Time  `json:"lastSynced"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

func NewRemoteNote(userID string, n Note, syncedAt time.Time) RemoteNote {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return RemoteNote{
		UserID:     userID,
		NoteID:     n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Tags:       tags,
		Pinned:     n.Pinned,
		Favorite:   n.Favorite,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		LastSynced: syncedAt,
	}
}

// ToNote converts the record to the device view. A record fetched from the
// remote store is by definition acknowledged, so Synced is true.
func (r RemoteNote) ToNote() Note {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return Note{
		ID:        r.NoteID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Pinned:    r.Pinned,
		Favorite:  r.Favorite,
		Tags:      tags,
		Synced:    true,
		DeletedAt: r.DeletedAt,
	}
}

func (r RemoteNote) Key() NoteKey {
	return NoteKey{UserID: r.UserID, NoteID: r.NoteID}
}

// NoteKey is the primary key of a remote record.
type NoteKey struct {
	UserID string `json:"userId"`
	NoteID string `json:"noteId"`
}
