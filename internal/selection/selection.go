// Package selection holds the bounded, ordered set of tracks a user is
// curating before it becomes a playlist.
package selection

import (
	"slices"

	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

const (
	DefaultMinTracks = 8
	DefaultMaxTracks = 12
)

// Policy bounds a selection. Max is enforced on every add, Min only when
// the selection is turned into a playlist.
type Policy struct {
	Min int
	Max int
}

func DefaultPolicy() Policy {
	return Policy{Min: DefaultMinTracks, Max: DefaultMaxTracks}
}

// Check reports whether n tracks may be assembled into a playlist.
func (p Policy) Check(n int) error {
	if n < p.Min || n > p.Max {
		return apperrors.InvalidSelection(p.Min, p.Max)
	}
	return nil
}

type Selection struct {
	policy Policy
	tracks []model.Track
}

// New builds a selection from stored tracks, dropping duplicates and
// anything past the policy maximum.
func New(policy Policy, tracks []model.Track) *Selection {
	s := &Selection{policy: policy, tracks: make([]model.Track, 0, policy.Max)}
	for _, t := range tracks {
		s.Add(t)
	}
	return s
}

// Toggle removes the track if present, otherwise appends it when there is
// room. Adding to a full selection is a no-op. Returns whether the track is
// selected afterwards.
func (s *Selection) Toggle(t model.Track) bool {
	if s.Remove(t.ID) {
		return false
	}
	return s.Add(t)
}

// Add appends t unless it is already selected or the selection is full.
func (s *Selection) Add(t model.Track) bool {
	if t.ID == "" || s.Contains(t.ID) || s.Full() {
		return false
	}
	s.tracks = append(s.tracks, t)
	return true
}

func (s *Selection) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tracks = slices.Delete(s.tracks, i, i+1)
	return true
}

func (s *Selection) Contains(id string) bool {
	return s.index(id) >= 0
}

func (s *Selection) Clear() {
	s.tracks = s.tracks[:0]
}

func (s *Selection) Len() int {
	return len(s.tracks)
}

func (s *Selection) Full() bool {
	return len(s.tracks) >= s.policy.Max
}

func (s *Selection) Policy() Policy {
	return s.policy
}

// Tracks returns a copy in selection order.
func (s *Selection) Tracks() []model.Track {
	return slices.Clone(s.tracks)
}

// Refs returns the identifiers the provider expects for adding tracks.
func (s *Selection) Refs(provider model.Provider) []string {
	refs := make([]string, len(s.tracks))
	for i, t := range s.tracks {
		refs[i] = t.Ref(provider)
	}
	return refs
}

// Validate applies the assembly bounds to the current length.
func (s *Selection) Validate() error {
	return s.policy.Check(len(s.tracks))
}

func (s *Selection) index(id string) int {
	return slices.IndexFunc(s.tracks, func(t model.Track) bool { return t.ID == id })
}
