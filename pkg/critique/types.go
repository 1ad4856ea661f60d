// Package critique turns a generated CV critique into reviewable sections and back.
package critique

// Section is one reviewable unit of a critique.
type Section struct {
	Key      SectionKey `json:"key"`
	Label    string     `json:"label"`
	Body     string     `json:"body"`
	IsScored bool       `json:"is_scored"`
	Score    int        `json:"score,omitempty"`
	Revised  bool       `json:"revised"`
}

// Document is a segmented critique.
type Document struct {
	Preamble        string      `json:"preamble"`
	Sections        []Section   `json:"sections"`
	Scores          *ScoreBlock `json:"scores,omitempty"`
	Recommendations []string    `json:"recommendations"`
	Original        string      `json:"original"`
}

// Empty reports whether the critique has no reviewable sections.
func (d *Document) Empty() (empty bool) {
	empty = len(d.Sections) == 0
	return empty
}

// Clone returns a deep copy.
func (d *Document) Clone() (clone Document) {
	clone = *d

	clone.Sections = make([]Section, len(d.Sections))
	copy(clone.Sections, d.Sections)

	if d.Recommendations != nil {
		clone.Recommendations = make([]string, len(d.Recommendations))
		copy(clone.Recommendations, d.Recommendations)
	}

	if d.Scores != nil {
		scores := d.Scores.clone()
		clone.Scores = &scores
	}

	return clone
}

// IndexOf returns the position of the section with the given key, or -1.
func (d *Document) IndexOf(key SectionKey) (index int) {
	index = -1
	for i := range d.Sections {
		if d.Sections[i].Key == key {
			index = i
			return index
		}
	}
	return index
}
