package critique

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinCategoryScore is the lowest valid per-category score.
	MinCategoryScore = 1
	// MaxCategoryScore is the highest valid per-category score.
	MaxCategoryScore = 10
	// MaxOverallScore is the highest valid aggregate score.
	MaxOverallScore = 100
)

//nolint:gochecknoglobals // Compiled once
var (
	scoreLinePattern = regexp.MustCompile(`^\s*(?:[•·▪\-*–]+\s*)?(.+?)\s*:\s*(\d+)\s*(?:/\s*(\d+))?\s*\.?\s*$`)
	overallPattern   = regexp.MustCompile(`(?i)(?:overall\s+score|загальна\s+оцінка)\s*:?\s*(\d+)\s*(?:/\s*(\d+))?`)
)

// ScoreBlock holds per-category ratings and the aggregate.
type ScoreBlock struct {
	Categories      map[SectionKey]int `json:"categories"`
	Overall         int                `json:"overall,omitempty"`
	OverallDeclared bool               `json:"overall_declared"`
}

// NewScoreBlock returns an empty score block.
func NewScoreBlock() (block *ScoreBlock) {
	block = &ScoreBlock{Categories: make(map[SectionKey]int)}
	return block
}

// Aggregate returns the declared overall score, or one derived from the category mean.
func (b *ScoreBlock) Aggregate() (aggregate int) {
	if b.OverallDeclared {
		aggregate = b.Overall
		return aggregate
	}

	if len(b.Categories) == 0 {
		return aggregate
	}

	sum := 0
	for _, score := range b.Categories {
		sum += score
	}

	aggregate = int(math.Round(float64(sum) * 10 / float64(len(b.Categories))))
	return aggregate
}

// absorb parses one line of a score block. Unusable lines are dropped.
func (b *ScoreBlock) absorb(line string) {
	if overall, ok := ParseOverallLine(line); ok {
		b.Overall = overall
		b.OverallDeclared = true
		return
	}

	if key, score, ok := ParseScoreLine(line); ok {
		b.Categories[key] = score
	}
}

func (b *ScoreBlock) clone() (clone ScoreBlock) {
	clone = *b
	clone.Categories = make(map[SectionKey]int, len(b.Categories))
	for k, v := range b.Categories {
		clone.Categories[k] = v
	}
	return clone
}

// ParseScoreLine parses a category rating such as "• Experience: 7/10".
// Labels outside the vocabulary, values outside 1..10 and denominators other than 10 are rejected.
func ParseScoreLine(line string) (key SectionKey, score int, ok bool) {
	m := scoreLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return key, score, ok
	}

	key, ok = NormalizeLabel(m[1])
	if !ok {
		return key, score, ok
	}

	value, err := strconv.Atoi(m[2])
	if err != nil || value < MinCategoryScore || value > MaxCategoryScore {
		ok = false
		return key, score, ok
	}

	if m[3] != "" && m[3] != strconv.Itoa(MaxCategoryScore) {
		ok = false
		return key, score, ok
	}

	score = value
	return key, score, ok
}

// ParseOverallLine parses an aggregate such as "🌟 Overall Score: 70/100".
func ParseOverallLine(line string) (overall int, ok bool) {
	m := overallPattern.FindStringSubmatch(line)
	if m == nil {
		return overall, ok
	}

	value, err := strconv.Atoi(m[1])
	if err != nil || value < 0 || value > MaxOverallScore {
		return overall, ok
	}

	if m[2] != "" && m[2] != strconv.Itoa(MaxOverallScore) {
		return overall, ok
	}

	overall = value
	ok = true
	return overall, ok
}
