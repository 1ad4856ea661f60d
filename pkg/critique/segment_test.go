package critique

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = "Impression.\n\nSummary/Profile\nGood intro.\n\nSkills/Qualifications\nStrong.\n\n" +
	"📊 CV Score Breakdown:\n• Summary/Profile: 6\n• Skills & Qualifications: 8\n\n" +
	"🌟 Overall Score: 70/100\n\n📌 Recommendations:\n• Add metrics."

func TestSegmentScenario(t *testing.T) {
	doc := Segment(scenario)

	assert.Equal(t, "Impression.", doc.Preamble)
	require.Len(t, doc.Sections, 2)

	want := []Section{
		{Key: KeySummary, Label: "Summary/Profile", Body: "Good intro.", IsScored: true, Score: 6},
		{Key: KeySkills, Label: "Skills/Qualifications", Body: "Strong.", IsScored: true, Score: 8},
	}
	if diff := cmp.Diff(want, doc.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, doc.Scores)
	assert.Equal(t, map[SectionKey]int{KeySummary: 6, KeySkills: 8}, doc.Scores.Categories)
	assert.Equal(t, 70, doc.Scores.Aggregate())
	assert.True(t, doc.Scores.OverallDeclared)

	assert.Equal(t, []string{"Add metrics."}, doc.Recommendations)
	assert.Equal(t, scenario, doc.Original)
}

func TestSegmentAnyOrderKeepsSourceOrder(t *testing.T) {
	raw := strings.Join([]string{
		"Overall the CV is solid.",
		"Education\nBSc Computer Science.",
		"Formatting & ATS-readiness\nUse standard headings.",
		"Experience\nAdd numbers.",
		"Summary/Profile\nToo long.",
		"Skills/Qualifications\nGroup by area.",
	}, "\n\n")

	doc := Segment(raw)

	keys := make([]SectionKey, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		keys = append(keys, s.Key)
	}

	assert.Equal(t, []SectionKey{KeyEducation, KeyFormatting, KeyExperience, KeySummary, KeySkills}, keys)
}

func TestSegmentDecoratedHeadings(t *testing.T) {
	raw := "Intro.\n\n**1. Summary/Profile:**\nText.\n\n### 2) SKILLS & QUALIFICATIONS\nMore.\n\n3. Experience: needs metrics\n- Led team"

	doc := Segment(raw)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, KeySummary, doc.Sections[0].Key)
	assert.Equal(t, KeySkills, doc.Sections[1].Key)
	assert.Equal(t, KeyExperience, doc.Sections[2].Key)
	assert.Equal(t, "3. Experience:", doc.Sections[2].Label)
	assert.Equal(t, "needs metrics\n- Led team", doc.Sections[2].Body)
}

func TestSegmentContinuationBlocks(t *testing.T) {
	raw := "Intro.\n\nStill intro.\n\nExperience\nFirst paragraph.\n\nSecond paragraph without heading.\n\nEducation\nFine."

	doc := Segment(raw)

	assert.Equal(t, "Intro.\n\nStill intro.", doc.Preamble)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph without heading.", doc.Sections[0].Body)
	assert.Equal(t, "Fine.", doc.Sections[1].Body)
}

func TestSegmentDuplicateOverwritesInPlace(t *testing.T) {
	raw := "Intro.\n\nSkills\nOld.\n\nEducation\nEdu.\n\nSkills & Qualifications\nNew."

	doc := Segment(raw)

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, KeySkills, doc.Sections[0].Key)
	assert.Equal(t, "Skills & Qualifications", doc.Sections[0].Label)
	assert.Equal(t, "New.", doc.Sections[0].Body)
	assert.Equal(t, KeyEducation, doc.Sections[1].Key)
}

func TestSegmentNoRecognizedSections(t *testing.T) {
	raw := "Great CV.\n\nNothing else to say here.\n\nReally."

	doc := Segment(raw)

	assert.True(t, doc.Empty())
	assert.Nil(t, doc.Scores)
	assert.Equal(t, "Great CV.\n\nNothing else to say here.\n\nReally.", doc.Preamble)
}

func TestSegmentEmptyInput(t *testing.T) {
	doc := Segment("  \n\n ")
	assert.True(t, doc.Empty())
	assert.Empty(t, doc.Preamble)
}

func TestSegmentScoreBlockContinuationAndRecommendations(t *testing.T) {
	raw := "Intro.\n\nEducation\nOk.\n\n📊 CV Score Breakdown:\n• Education: 7 / 10\n\n• Experience: 15/10\n• Formatting & ATS: 9 / 10\n\n" +
		"🌟 Overall Score: 80 / 100\n\n📌 Recommendations:\n1. Quantify impact.\n2) Trim summary.\n\n- Add a skills matrix."

	doc := Segment(raw)

	require.NotNil(t, doc.Scores)
	assert.Equal(t, map[SectionKey]int{KeyEducation: 7, KeyFormatting: 9}, doc.Scores.Categories)
	assert.Equal(t, 80, doc.Scores.Aggregate())
	assert.Equal(t, []string{"Quantify impact.", "Trim summary.", "Add a skills matrix."}, doc.Recommendations)
	require.Len(t, doc.Sections, 1)
	assert.True(t, doc.Sections[0].IsScored)
	assert.Equal(t, 7, doc.Sections[0].Score)
}

func TestSegmentScoreOnHeadingLine(t *testing.T) {
	raw := "Intro.\n\nExperience\nSolid.\n\n📊 CV Score Breakdown: • Experience: 7/10\n• Education: 6 / 10"

	doc := Segment(raw)

	require.NotNil(t, doc.Scores)
	assert.Equal(t, map[SectionKey]int{KeyExperience: 7, KeyEducation: 6}, doc.Scores.Categories)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, 7, doc.Sections[0].Score)
}

func TestSegmentWindowsLineEndings(t *testing.T) {
	doc := Segment("Intro.\r\n\r\nEducation\r\nOk.")
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Ok.", strings.TrimSpace(doc.Sections[0].Body))
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := Segment(scenario)
	clone := doc.Clone()

	clone.Sections[0].Body = "changed"
	clone.Scores.Categories[KeySummary] = 1
	clone.Recommendations[0] = "changed"

	assert.Equal(t, "Good intro.", doc.Sections[0].Body)
	assert.Equal(t, 6, doc.Scores.Categories[KeySummary])
	assert.Equal(t, "Add metrics.", doc.Recommendations[0])
}

func TestIndexOf(t *testing.T) {
	doc := Segment(scenario)
	assert.Equal(t, 1, doc.IndexOf(KeySkills))
	assert.Equal(t, -1, doc.IndexOf(KeyEducation))
}
