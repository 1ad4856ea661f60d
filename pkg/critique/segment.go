package critique

import (
	"regexp"
	"strings"
)

const (
	scoreMarker          = "📊"
	overallMarker        = "🌟"
	recommendationMarker = "📌"
)

//nolint:gochecknoglobals // Compiled once
var (
	blankLinePattern  = regexp.MustCompile(`\n[ \t\r]*\n`)
	itemBulletPattern = regexp.MustCompile(`^\s*(?:[•·▪►\-*–—]+|\d+[.)])\s*`)
	scoreValuePattern = regexp.MustCompile(`^\d+\s*(?:/\s*\d+)?\s*\.?$`)
)

// target is where a continuation block gets appended.
type target int

const (
	targetPreamble target = iota
	targetSection
	targetScores
	targetRecommendations
)

// Segment splits a generated critique into its preamble, reviewable sections,
// score block and recommendations. Sections keep source order. A heading that
// repeats an earlier one overwrites that section's content in place.
func Segment(raw string) (doc Document) {
	doc.Original = raw

	blocks := splitBlocks(raw)
	if len(blocks) == 0 {
		return doc
	}

	doc.Preamble = blocks[0]

	positions := make(map[SectionKey]int)
	current := targetPreamble
	currentSection := -1

	for _, block := range blocks[1:] {
		first, rest := splitFirstLine(block)

		switch {
		case isOverallHeading(first):
			doc.ensureScores()
			doc.Scores.absorb(first)
			for _, line := range splitLines(rest) {
				doc.Scores.absorb(line)
			}
			current = targetScores
			continue

		case isScoreHeading(first):
			doc.ensureScores()
			if _, after, found := strings.Cut(first, ":"); found {
				doc.Scores.absorb(after)
			}
			for _, line := range splitLines(rest) {
				doc.Scores.absorb(line)
			}
			current = targetScores
			continue

		case isRecommendationsHeading(first):
			if _, after, found := strings.Cut(first, ":"); found {
				doc.addRecommendations(after)
			}
			doc.addRecommendations(rest)
			current = targetRecommendations
			continue
		}

		if key, label, body, ok := matchHeading(first, rest); ok {
			if i, seen := positions[key]; seen {
				doc.Sections[i].Label = label
				doc.Sections[i].Body = body
				currentSection = i
			} else {
				doc.Sections = append(doc.Sections, Section{Key: key, Label: label, Body: body})
				currentSection = len(doc.Sections) - 1
				positions[key] = currentSection
			}
			current = targetSection
			continue
		}

		switch current {
		case targetPreamble:
			doc.Preamble = joinParagraphs(doc.Preamble, block)
		case targetSection:
			doc.Sections[currentSection].Body = joinParagraphs(doc.Sections[currentSection].Body, block)
		case targetScores:
			for _, line := range splitLines(block) {
				doc.Scores.absorb(line)
			}
		case targetRecommendations:
			doc.addRecommendations(block)
		}
	}

	doc.attachScores()

	return doc
}

func (d *Document) ensureScores() {
	if d.Scores == nil {
		d.Scores = NewScoreBlock()
	}
}

func (d *Document) addRecommendations(text string) {
	for _, line := range splitLines(text) {
		item := strings.TrimSpace(itemBulletPattern.ReplaceAllString(line, ""))
		if item != "" {
			d.Recommendations = append(d.Recommendations, item)
		}
	}
}

func (d *Document) attachScores() {
	if d.Scores == nil {
		return
	}
	for i := range d.Sections {
		if score, ok := d.Scores.Categories[d.Sections[i].Key]; ok {
			d.Sections[i].IsScored = true
			d.Sections[i].Score = score
		}
	}
}

// matchHeading recognizes a section heading on the first line of a block. A line such as
// "Experience: solid, but no metrics" is accepted with the text after the colon moved into the body;
// "Experience: 15/10" is a rating, not a heading.
func matchHeading(first, rest string) (key SectionKey, label, body string, ok bool) {
	label = strings.TrimSpace(first)
	body = rest

	key, ok = NormalizeLabel(label)
	if ok {
		return key, label, body, ok
	}

	head, tail, found := strings.Cut(label, ":")
	if !found || scoreValuePattern.MatchString(strings.TrimSpace(tail)) {
		return key, label, body, ok
	}

	key, ok = NormalizeLabel(head)
	if !ok {
		return key, label, body, ok
	}

	label = strings.TrimSpace(head) + ":"
	tail = strings.TrimSpace(tail)
	if tail != "" {
		body = joinLines(tail, rest)
	}

	return key, label, body, ok
}

func isScoreHeading(line string) (is bool) {
	trimmed := strings.TrimSpace(line)
	canonical := canonicalLabel(trimmed)
	is = strings.HasPrefix(trimmed, scoreMarker) || strings.Contains(canonical, "score-breakdown")
	return is
}

func isOverallHeading(line string) (is bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, overallMarker) {
		is = true
		return is
	}
	_, is = ParseOverallLine(trimmed)
	is = is && !strings.HasPrefix(trimmed, scoreMarker)
	return is
}

func isRecommendationsHeading(line string) (is bool) {
	trimmed := strings.TrimSpace(line)
	is = strings.HasPrefix(trimmed, recommendationMarker) || strings.HasPrefix(canonicalLabel(trimmed), "recommend")
	return is
}

func splitBlocks(raw string) (blocks []string) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	for _, part := range blankLinePattern.Split(normalized, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

func splitFirstLine(block string) (first, rest string) {
	first, rest, _ = strings.Cut(block, "\n")
	rest = strings.TrimSpace(rest)
	return first, rest
}

func splitLines(text string) (lines []string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinParagraphs(a, b string) (joined string) {
	switch {
	case a == "":
		joined = b
	case b == "":
		joined = a
	default:
		joined = a + "\n\n" + b
	}
	return joined
}

func joinLines(a, b string) (joined string) {
	switch {
	case a == "":
		joined = b
	case b == "":
		joined = a
	default:
		joined = a + "\n" + b
	}
	return joined
}
