// Package selection implements the per-file, per-line inclusion state used
// for partial commits.
package selection

// Kind is the derived selection type of a single file. It is a pure function
// of the per-line bitset and is never stored separately from it.
type Kind int

const (
	None Kind = iota
	Partial
	All
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Partial:
		return "partial"
	default:
		return "all"
	}
}

// DiffSelection tracks which of a file's selectable diff lines are included
// in the next commit. Values are immutable: every operation returns a new
// selection, leaving the receiver untouched.
type DiffSelection struct {
	lines []bool
}

// New creates a selection over lineCount selectable lines, all initialized to
// the given inclusion state.
func New(lineCount int, included bool) DiffSelection {
	lines := make([]bool, lineCount)
	if included {
		for i := range lines {
			lines[i] = true
		}
	}
	return DiffSelection{lines: lines}
}

// Kind derives the selection type. A file with no selectable lines counts as
// fully selected, matching the empty-set aggregate.
func (s DiffSelection) Kind() Kind {
	selected := s.SelectedCount()
	switch {
	case selected == len(s.lines):
		return All
	case selected == 0:
		return None
	default:
		return Partial
	}
}

// LineCount returns the number of selectable lines.
func (s DiffSelection) LineCount() int {
	return len(s.lines)
}

// SelectedCount returns the number of included lines.
func (s DiffSelection) SelectedCount() int {
	count := 0
	for _, included := range s.lines {
		if included {
			count++
		}
	}
	return count
}

// IsSelected reports whether line index i is included. Out-of-range indices
// are not selected.
func (s DiffSelection) IsSelected(i int) bool {
	if i < 0 || i >= len(s.lines) {
		return false
	}
	return s.lines[i]
}

// SelectAll returns a selection with every line included.
func (s DiffSelection) SelectAll() DiffSelection {
	return New(len(s.lines), true)
}

// SelectNone returns a selection with no lines included.
func (s DiffSelection) SelectNone() DiffSelection {
	return New(len(s.lines), false)
}

// SetRange returns a selection with lines [start, start+count) set to
// included. Out-of-range portions of the range are ignored.
func (s DiffSelection) SetRange(start, count int, included bool) DiffSelection {
	lines := make([]bool, len(s.lines))
	copy(lines, s.lines)

	for i := start; i < start+count; i++ {
		if i < 0 || i >= len(lines) {
			continue
		}
		lines[i] = included
	}
	return DiffSelection{lines: lines}
}

// Aggregate computes the selection type across multiple files: All iff every
// file is All, None iff every file is None, otherwise Partial. The empty set
// aggregates to All.
func Aggregate(files []DiffSelection) Kind {
	allAll := true
	allNone := true

	for _, f := range files {
		switch f.Kind() {
		case All:
			allNone = false
		case None:
			allAll = false
		default:
			return Partial
		}
	}

	switch {
	case allAll:
		return All
	case allNone:
		return None
	default:
		return Partial
	}
}
