package critique

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		label  string
		want   SectionKey
		wantOK bool
	}{
		{label: "Summary/Profile", want: KeySummary, wantOK: true},
		{label: "**SUMMARY / PROFILE**", want: KeySummary, wantOK: true},
		{label: "1. Summary/Profile:", want: KeySummary, wantOK: true},
		{label: "Skills/Qualifications", want: KeySkills, wantOK: true},
		{label: "Skills & Qualifications", want: KeySkills, wantOK: true},
		{label: "Skills and Qualifications", want: KeySkills, wantOK: true},
		{label: "### Experience", want: KeyExperience, wantOK: true},
		{label: "Work Experience", want: KeyExperience, wantOK: true},
		{label: "Education", want: KeyEducation, wantOK: true},
		{label: "5. Formatting & ATS", want: KeyFormatting, wantOK: true},
		{label: "Formatting & ATS-readiness", want: KeyFormatting, wantOK: true},
		{label: "Навички та кваліфікації", want: KeySkills, wantOK: true},
		{label: "Освіта", want: KeyEducation, wantOK: true},
		{label: "Hobbies", wantOK: false},
		{label: "Experience is strong overall", wantOK: false},
		{label: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := NormalizeLabel(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVocabularyIsTotal(t *testing.T) {
	seen := make(map[SectionKey]bool)
	for _, key := range Vocabulary {
		assert.True(t, key.Valid())
		assert.NotEmpty(t, key.DisplayName())

		got, ok := NormalizeLabel(key.DisplayName())
		assert.True(t, ok, "display name %q must normalize", key.DisplayName())
		assert.Equal(t, key, got)
		seen[key] = true
	}
	assert.Len(t, seen, 5)
	assert.False(t, SectionKey("hobbies").Valid())
}
