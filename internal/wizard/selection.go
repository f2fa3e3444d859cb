package wizard

import (
	"slices"
	"strings"

	"github.com/fpang/retouch-studio/internal/gemini"
)

// Selection is the set of palette colors chosen for transfer, unique by hex
// compared case-insensitively, kept in selection order.
type Selection struct {
	colors []gemini.ExtractedColor
}

func (s *Selection) index(hex string) int {
	return slices.IndexFunc(s.colors, func(c gemini.ExtractedColor) bool {
		return strings.EqualFold(c.Hex, hex)
	})
}

// Contains reports whether a color with hex is selected.
func (s *Selection) Contains(hex string) bool {
	return s.index(hex) >= 0
}

// Toggle removes c if a color with its hex is selected, otherwise adds it.
// It reports whether c is selected afterwards.
func (s *Selection) Toggle(c gemini.ExtractedColor) bool {
	if i := s.index(c.Hex); i >= 0 {
		s.colors = slices.Delete(s.colors, i, i+1)
		return false
	}
	s.colors = append(s.colors, c)
	return true
}

// Colors returns a copy of the selected colors.
func (s *Selection) Colors() []gemini.ExtractedColor {
	return slices.Clone(s.colors)
}

// Len returns the number of selected colors.
func (s *Selection) Len() int {
	return len(s.colors)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.colors = nil
}
