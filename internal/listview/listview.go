package listview

import (
	"stddocs/internal/model"
)

// State is the per-client list state: the search term and the selected IDs.
// The zero value is ready to use.
//
// The selection is independent of the filtered view. Changing the search term
// neither prunes nor re-validates it, so IDs hidden by a stricter filter stay selected.
type State struct {
	Search   string          `json:"search"`
	Selected map[string]bool `json:"selected,omitempty"`
}

// Item is one visible row.
type Item struct {
	model.StandardDocument
	TypeInfo model.TypeInfo `json:"type_info"`
	Selected bool           `json:"selected"`
}

// View is the rendered list. Empty signals the placeholder state; it is not a
// separate data state.
type View struct {
	Search      string   `json:"search"`
	Items       []Item   `json:"items"`
	Count       int      `json:"count"`
	Total       int      `json:"total"`
	Empty       bool     `json:"empty"`
	Selected    []string `json:"selected"`
	AllSelected bool     `json:"all_selected"`
}

// Filter returns the documents whose name or creator contains term, case-insensitively.
// Order is preserved. The result is always a fresh slice.
func Filter(docs []model.StandardDocument, term string) []model.StandardDocument {
	out := make([]model.StandardDocument, 0, len(docs))
	for _, d := range docs {
		if model.MatchesSearch(d, term) {
			out = append(out, d)
		}
	}
	return out
}

// SetSearch replaces the search term.
func (s *State) SetSearch(term string) {
	s.Search = term
}

// SelectAll sets the selection to exactly the IDs of visible.
func (s *State) SelectAll(visible []model.StandardDocument) {
	s.Selected = make(map[string]bool, len(visible))
	for _, d := range visible {
		s.Selected[d.ID] = true
	}
}

// ClearSelection empties the selection.
func (s *State) ClearSelection() {
	s.Selected = nil
}

// Toggle flips the membership of id and reports whether it is now selected.
func (s *State) Toggle(id string) bool {
	if s.Selected[id] {
		delete(s.Selected, id)
		return false
	}
	if s.Selected == nil {
		s.Selected = make(map[string]bool)
	}
	s.Selected[id] = true
	return true
}

// IsSelected reports whether id is in the selection.
func (s *State) IsSelected(id string) bool {
	return s.Selected[id]
}

// SelectedIDs returns the selected IDs in the order they appear in docs.
// Selected IDs that no longer exist in docs are omitted.
func (s *State) SelectedIDs(docs []model.StandardDocument) []string {
	ids := make([]string, 0, len(s.Selected))
	for _, d := range docs {
		if s.Selected[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Forget drops ids from the selection, typically after they were deleted.
func (s *State) Forget(ids ...string) {
	for _, id := range ids {
		delete(s.Selected, id)
	}
	if len(s.Selected) == 0 {
		s.Selected = nil
	}
}

// Render computes the view of docs under the current state.
func (s *State) Render(docs []model.StandardDocument) View {
	visible := Filter(docs, s.Search)
	v := View{
		Search:   s.Search,
		Items:    make([]Item, 0, len(visible)),
		Count:    len(visible),
		Total:    len(docs),
		Empty:    len(visible) == 0,
		Selected: s.SelectedIDs(docs),
	}

	allSelected := len(visible) > 0
	for _, d := range visible {
		sel := s.Selected[d.ID]
		if !sel {
			allSelected = false
		}
		v.Items = append(v.Items, Item{StandardDocument: d, TypeInfo: d.Type.Info(), Selected: sel})
	}
	v.AllSelected = allSelected && len(s.Selected) == len(visible)
	return v
}
