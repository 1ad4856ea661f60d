package critique

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScoreLine(t *testing.T) {
	tests := []struct {
		line      string
		wantKey   SectionKey
		wantScore int
		wantOK    bool
	}{
		{line: "• Experience: 7/10", wantKey: KeyExperience, wantScore: 7, wantOK: true},
		{line: "- Summary/Profile: 6 / 10", wantKey: KeySummary, wantScore: 6, wantOK: true},
		{line: "Skills & Qualifications: 8", wantKey: KeySkills, wantScore: 8, wantOK: true},
		{line: "• Formatting & ATS-readiness: 10 / 10", wantKey: KeyFormatting, wantScore: 10, wantOK: true},
		{line: "• Experience: 15/10", wantOK: false},
		{line: "• Experience: 0/10", wantOK: false},
		{line: "• Experience: 7/100", wantOK: false},
		{line: "• Experience: seven", wantOK: false},
		{line: "• Hobbies: 5/10", wantOK: false},
		{line: "no separator here", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, score, ok := ParseScoreLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKey, key)
				assert.Equal(t, tt.wantScore, score)
			}
		})
	}
}

func TestParseOverallLine(t *testing.T) {
	tests := []struct {
		line   string
		want   int
		wantOK bool
	}{
		{line: "🌟 Overall Score: 70/100", want: 70, wantOK: true},
		{line: "Overall score: 85 / 100", want: 85, wantOK: true},
		{line: "🌟 Загальна оцінка: 64/100", want: 64, wantOK: true},
		{line: "Overall Score: 130/100", wantOK: false},
		{line: "Overall Score: 7/10", wantOK: false},
		{line: "Experience: 7", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseOverallLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAggregateDerivedFromCategories(t *testing.T) {
	block := NewScoreBlock()
	assert.Equal(t, 0, block.Aggregate())

	block.Categories[KeySummary] = 6
	block.Categories[KeySkills] = 7
	assert.Equal(t, 65, block.Aggregate())

	block.Overall = 50
	block.OverallDeclared = true
	assert.Equal(t, 50, block.Aggregate())
}
