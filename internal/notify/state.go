package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateKey is the key-value entry the notification state is stored under.
const StateKey = "expiryNotifications"

// Entry is one product's last notification time.
type Entry struct {
	ProductID    int64     `json:"productId"`
	LastNotified time.Time `json:"lastNotified"`
}

// State maps product ids to their last notification time, keeping
// insertion order. The zero value is empty and ready to use.
type State struct {
	entries []Entry
	index   map[int64]int
}

// NewState builds a state from entries. A later duplicate id overwrites the
// earlier one in place.
func NewState(entries ...Entry) *State {
	s := &State{}
	for _, e := range entries {
		s.Set(e.ProductID, e.LastNotified)
	}
	return s
}

// Get returns the last notification time for id.
func (s *State) Get(id int64) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return time.Time{}, false
	}
	return s.entries[i].LastNotified, true
}

// Set records t for id, keeping the position of an existing entry.
func (s *State) Set(id int64, t time.Time) {
	if s.index == nil {
		s.index = map[int64]int{}
	}
	if i, ok := s.index[id]; ok {
		s.entries[i].LastNotified = t
		return
	}
	s.index[id] = len(s.entries)
	s.entries = append(s.entries, Entry{ProductID: id, LastNotified: t})
}

// Delete removes id.
func (s *State) Delete(id int64) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].ProductID] = j
	}
}

// Len returns the number of entries.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the entries in order.
func (s *State) Entries() []Entry {
	if s == nil {
		return []Entry{}
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	return NewState(s.Entries()...)
}

// MarshalJSON encodes the state as an array of entries.
func (s *State) MarshalJSON() ([]byte, error) {
	entries := s.Entries()
	for i := range entries {
		entries[i].LastNotified = entries[i].LastNotified.UTC()
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes an array of entries.
func (s *State) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*s = *NewState(entries...)
	return nil
}

// ParseState decodes a stored value. An empty value is an empty state.
func ParseState(raw string) (*State, error) {
	s := &State{}
	if raw == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("decode notification state: %w", err)
	}
	return s, nil
}
