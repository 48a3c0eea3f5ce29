package service

import "sort"

// Selection tracks which records are chosen for a batch operation. It is
// scoped to the currently viewed collection and owned by that view; the
// caller clears it on navigation or after submitting a batch action.
//
// The "select all visible" toggle is deliberately NOT here - deriving
// "everything selected, so clear" belongs to the caller.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll sets membership to exactly ids, dropping anything else.
func (s *Selection) SelectAll(ids []string) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// IsSelected reports membership of id.
func (s *Selection) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected records.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in sorted order for deterministic submission.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ContainsAll reports whether every id in ids is selected. Used by the
// caller to derive the select-all toggle.
func (s *Selection) ContainsAll(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.IsSelected(id) {
			return false
		}
	}
	return true
}
