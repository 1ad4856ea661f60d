package critique

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// SectionKey is the stable identifier of a reviewable critique section.
type SectionKey string

const (
	// KeySummary is the summary/profile section.
	KeySummary SectionKey = "sum"
	// KeySkills is the skills/qualifications section.
	KeySkills SectionKey = "skills"
	// KeyExperience is the experience section.
	KeyExperience SectionKey = "exp"
	// KeyEducation is the education section.
	KeyEducation SectionKey = "edu"
	// KeyFormatting is the formatting and ATS-readiness section.
	KeyFormatting SectionKey = "format"
)

// Vocabulary lists every section key in presentation order.
//
//nolint:gochecknoglobals // Fixed vocabulary
var Vocabulary = []SectionKey{KeySummary, KeySkills, KeyExperience, KeyEducation, KeyFormatting}

//nolint:gochecknoglobals // Fixed vocabulary
var displayNames = map[SectionKey]string{
	KeySummary:    "Summary/Profile",
	KeySkills:     "Skills & Qualifications",
	KeyExperience: "Experience",
	KeyEducation:  "Education",
	KeyFormatting: "Formatting & ATS",
}

// aliases maps canonical label forms to keys. Canonical forms are produced by canonicalLabel.
//
//nolint:gochecknoglobals // Fixed vocabulary
var aliases = map[string]SectionKey{
	"summary-profile":          KeySummary,
	"profile-summary":          KeySummary,
	"summary":                  KeySummary,
	"profile":                  KeySummary,
	"professional-summary":     KeySummary,
	"personal-profile":         KeySummary,
	"резюме-профіль":           KeySummary,
	"профіль":                  KeySummary,
	"skills-qualifications":    KeySkills,
	"skills":                   KeySkills,
	"qualifications":           KeySkills,
	"key-skills":               KeySkills,
	"навички-кваліфікації":     KeySkills,
	"навички":                  KeySkills,
	"experience":               KeyExperience,
	"work-experience":          KeyExperience,
	"professional-experience":  KeyExperience,
	"employment-history":       KeyExperience,
	"досвід":                   KeyExperience,
	"досвід-роботи":            KeyExperience,
	"education":                KeyEducation,
	"освіта":                   KeyEducation,
	"formatting-ats":           KeyFormatting,
	"formatting-ats-readiness": KeyFormatting,
	"formatting":               KeyFormatting,
	"ats-readiness":            KeyFormatting,
	"форматування":             KeyFormatting,
	"форматування-ats":         KeyFormatting,
}

// connectives are dropped so "Skills & Qualifications", "Skills and Qualifications"
// and "Skills/Qualifications" share a canonical form.
//
//nolint:gochecknoglobals // Fixed vocabulary
var connectives = map[string]bool{"and": true, "the": true, "і": true, "та": true, "й": true}

// DisplayName returns the canonical title for a key.
func (k SectionKey) DisplayName() (name string) {
	name = displayNames[k]
	return name
}

// Valid reports whether k belongs to the vocabulary.
func (k SectionKey) Valid() (ok bool) {
	_, ok = displayNames[k]
	return ok
}

// NormalizeLabel maps a heading as written by the generation service to its section key.
// It is the only place keys are derived from text.
func NormalizeLabel(label string) (key SectionKey, ok bool) {
	key, ok = aliases[canonicalLabel(label)]
	return key, ok
}

// canonicalLabel case-folds the label, drops decoration, list numbering and connectives,
// and joins the remaining words with '-'.
func canonicalLabel(label string) (canonical string) {
	folded := cases.Fold().String(label)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	// Leading numbers are list numbering ("1.", "2)"); later ones are content.
	for len(words) > 0 && isNumber(words[0]) {
		words = words[1:]
	}

	kept := make([]string, 0, len(words))
	for _, w := range words {
		if connectives[w] {
			continue
		}
		kept = append(kept, w)
	}

	canonical = strings.Join(kept, "-")
	return canonical
}

func isNumber(word string) (numeric bool) {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return numeric
		}
	}
	numeric = word != ""
	return numeric
}
