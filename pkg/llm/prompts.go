package llm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SystemPrompt is sent with every request.
const SystemPrompt = "You are a professional career consultant with 10+ years of experience in HR and CV coaching. " +
	"Answer in plain text with short headings and bullet points. Do not wrap the answer in code fences."

// Mode selects what the assistant does with a CV.
type Mode string

const (
	// ModeAnalysis is a full critique of a CV.
	ModeAnalysis Mode = "analysis"
	// ModeMatch compares a CV with a vacancy.
	ModeMatch Mode = "match"
	// ModeHR is a short HR-style critique.
	ModeHR Mode = "hr"
	// ModeCover writes a cover letter for a vacancy.
	ModeCover Mode = "cover"
	// ModeStep produces a critique for the section-by-section review.
	ModeStep Mode = "step"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeAnalysis, ModeStep, ModeMatch, ModeHR, ModeCover} //nolint:gochecknoglobals // fixed menu order

// Valid reports whether m is a known mode.
func (m Mode) Valid() (ok bool) {
	for _, known := range Modes {
		if m == known {
			ok = true
			return ok
		}
	}
	return ok
}

// NeedsVacancy reports whether the mode takes a vacancy as well as a CV.
func (m Mode) NeedsVacancy() (needs bool) {
	needs = m == ModeMatch || m == ModeCover
	return needs
}

// ArtifactPrefix names the rendered file for the mode.
func (m Mode) ArtifactPrefix() (prefix string) {
	switch m {
	case ModeAnalysis:
		prefix = "cv_analysis"
	case ModeMatch:
		prefix = "cv_match"
	case ModeHR:
		prefix = "hr_feedback"
	case ModeCover:
		prefix = "cover_letter"
	case ModeStep:
		prefix = "step_by_step"
	default:
		prefix = "result"
	}
	return prefix
}

// PromptInput carries the texts a prompt is built from.
type PromptInput struct {
	CV      string
	Vacancy string
}

// scoreBreakdownTemplate is the block the segmenter parses back out of a critique.
const scoreBreakdownTemplate = `📊 CV Score Breakdown:
• Summary/Profile: X / 10
• Skills & Qualifications: X / 10
• Experience: X / 10
• Education: X / 10
• Formatting & ATS: X / 10

🌟 Overall Score: XX / 100`

// BuildPrompt builds the prompt for a mode. Long inputs are truncated.
func BuildPrompt(mode Mode, in PromptInput) (prompt string, err error) {
	if strings.TrimSpace(in.CV) == "" {
		err = errors.New("CV text is empty")
		return prompt, err
	}

	if mode.NeedsVacancy() && strings.TrimSpace(in.Vacancy) == "" {
		err = errors.Errorf("mode %s needs a vacancy", mode)
		return prompt, err
	}

	cv := Truncate(in.CV, MaxInputChars)
	vacancy := Truncate(in.Vacancy, MaxInputChars)
	locale := LocaleFor(DetectLanguage(cv))

	switch mode {
	case ModeAnalysis:
		prompt = buildAnalysisPrompt(cv, locale)
	case ModeMatch:
		prompt = buildMatchPrompt(cv, vacancy, locale)
	case ModeHR:
		prompt = buildHRPrompt(cv, locale)
	case ModeCover:
		prompt = buildCoverLetterPrompt(cv, vacancy)
	case ModeStep:
		prompt = buildStepPrompt(cv, locale)
	default:
		err = errors.Errorf("unknown mode %q", mode)
	}

	return prompt, err
}

// BuildRevisionPrompt asks for a polished rewrite of one section.
func BuildRevisionPrompt(label, text string) (prompt string) {
	prompt = fmt.Sprintf(`Please improve the following section of a CV. Keep it concise and professional. Keep the language the text is written in.
Only rewrite the text, do not return explanations, headings or quotes.

Section: %s

%s`, label, strings.TrimSpace(text))
	return prompt
}

func localeHeader(locale Locale) (header string) {
	header = locale.Market + "\n" + locale.Style + "\n" + locale.Reply
	return header
}

func buildAnalysisPrompt(cv string, locale Locale) (prompt string) {
	prompt = fmt.Sprintf(`%s

Analyze the following resume as if the candidate is applying for a modern, competitive role.
Your tasks:

1) Give a clear overall impression (1–2 sentences).
2) Evaluate each section separately:
   - Summary/Profile
   - Skills/Qualifications
   - Experience (use metrics wherever possible)
   - Education
   - Formatting & ATS-readiness
3) For every issue, provide a concrete suggestion AND an improved wording the candidate can copy.
4) Finish with a one-paragraph "ideal rewritten summary" for this resume, aligned with the target market above.
5) Rate each category from 1 to 10 and present the scores exactly like this:

%s

6) Based on the lowest scoring areas, provide 3–5 actionable recommendations under "📌 Recommendations:".

Resume:
%s
`, localeHeader(locale), scoreBreakdownTemplate, cv)
	return prompt
}

func buildMatchPrompt(cv, vacancy string, locale Locale) (prompt string) {
	prompt = fmt.Sprintf(`You are a senior HR consultant and career advisor with expertise in aligning CVs to job roles.
%s

Task:
- Compare the following resume to the job vacancy.
- Identify alignment and gaps.
- Recommend edits to make the CV a better match (especially in skills and experience).
- Rephrase or add bullet points to fit the job.
- Evaluate formatting and language alignment with market expectations.
- At the end, rate the resume by categories and provide an overall score, just like this:

%s

📌 Recommend 3–5 actions to increase alignment and success.

---
Resume:
%s

---
Job Vacancy:
%s
`, localeHeader(locale), scoreBreakdownTemplate, cv, vacancy)
	return prompt
}

func buildHRPrompt(cv string, locale Locale) (prompt string) {
	prompt = fmt.Sprintf(`You are a professional career coach helping job seekers improve their CVs.
%s

Provide a brief but focused HR-style critique of this CV:
- What is strong?
- What is missing?
- Formatting and clarity issues
- Suggestions to improve effectiveness for the job market above

Rate the resume using:
%s

📌 List 3–5 practical improvement tips.

Resume:
%s
`, localeHeader(locale), scoreBreakdownTemplate, cv)
	return prompt
}

func buildCoverLetterPrompt(cv, vacancy string) (prompt string) {
	prompt = fmt.Sprintf(`You are an experienced UK-based hiring manager helping candidates generate strong, personalised cover letters.
Match the applicant's CV to the vacancy and write a professional, persuasive letter that:
- Starts with a strong opening
- Explains how the candidate fits the role (skills, experience, results)
- Ends with a call to action

Write in British English and keep it to 3 paragraphs.

---
Job Vacancy:
%s

---
Resume:
%s
`, vacancy, cv)
	return prompt
}

// buildStepPrompt asks for a critique laid out one section per block, so it
// can be reviewed section by section.
func buildStepPrompt(cv string, locale Locale) (prompt string) {
	prompt = fmt.Sprintf(`You are a senior career coach.
%s

Perform a step-by-step CV review.

Layout rules (follow them exactly):
- Start with a one or two sentence overall impression.
- Then write one block per section, in this order, each starting with the section name alone on its own line:
Summary/Profile
Skills/Qualifications
Experience
Education
Formatting & ATS
- Under each name, comment on that section and give practical improvement suggestions and an example wording.
- Do not put blank lines inside a section block; separate blocks with one blank line.
- Then give the scores exactly like this:

%s

- Finish with "📌 Recommendations:" followed by 3–5 bullet points.

Resume:
%s
`, localeHeader(locale), scoreBreakdownTemplate, cv)
	return prompt
}
