package critique

import (
	"fmt"
	"strings"
)

// Assemble rebuilds the full critique from its current state: preamble, sections in stored
// order, the score block rendered from parsed values, then recommendations.
func Assemble(doc Document) (text string) {
	parts := make([]string, 0, len(doc.Sections)+4)

	if doc.Preamble != "" {
		parts = append(parts, doc.Preamble)
	}

	for _, section := range doc.Sections {
		parts = append(parts, RenderSection(section))
	}

	if doc.Scores != nil {
		parts = append(parts, renderScores(*doc.Scores)...)
	}

	if len(doc.Recommendations) > 0 {
		var b strings.Builder
		b.WriteString(recommendationMarker + " Recommendations:")
		for _, item := range doc.Recommendations {
			b.WriteString("\n• ")
			b.WriteString(item)
		}
		parts = append(parts, b.String())
	}

	text = strings.Join(parts, "\n\n")
	return text
}

// RenderSection renders a section as its heading followed by its body.
func RenderSection(section Section) (text string) {
	text = joinLines(section.Label, strings.TrimSpace(section.Body))
	return text
}

func renderScores(block ScoreBlock) (parts []string) {
	if len(block.Categories) > 0 {
		var b strings.Builder
		b.WriteString(scoreMarker + " CV Score Breakdown:")
		for _, key := range Vocabulary {
			score, ok := block.Categories[key]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n• %s: %d / %d", key.DisplayName(), score, MaxCategoryScore)
		}
		parts = append(parts, b.String())
	}

	if block.OverallDeclared || len(block.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("%s Overall Score: %d / %d", overallMarker, block.Aggregate(), MaxOverallScore))
	}

	return parts
}
