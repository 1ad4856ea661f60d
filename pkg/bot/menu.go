package bot

import "github.com/nikogura/cv-coach/pkg/llm"

// Menu labels as shown on the reply keyboard.
const (
	LabelAnalysis = "📄 CV analysis"
	LabelStep     = "🌟 Step-by-step CV review"
	LabelMatch    = "🎯 CV and job match analysis"
	LabelHR       = "🧠 HR Expert Advice"
	LabelCover    = "💌 Generate Cover Letter"
)

// Callback data carried by inline buttons.
const (
	CallbackEdit   = "review:edit"
	CallbackSkip   = "review:skip"
	CallbackCancel = "review:cancel"
	CallbackPDF    = "get_pdf"
)

//nolint:gochecknoglobals // Fixed menu
var menuModes = map[string]llm.Mode{
	LabelAnalysis: llm.ModeAnalysis,
	LabelStep:     llm.ModeStep,
	LabelMatch:    llm.ModeMatch,
	LabelHR:       llm.ModeHR,
	LabelCover:    llm.ModeCover,
}

// MenuRows is the reply keyboard layout.
func MenuRows() (rows [][]string) {
	rows = [][]string{
		{LabelAnalysis, LabelStep},
		{LabelMatch, LabelHR},
		{LabelCover},
	}
	return rows
}

// ModeForLabel maps a menu label to its mode.
func ModeForLabel(label string) (mode llm.Mode, ok bool) {
	mode, ok = menuModes[label]
	return mode, ok
}

// modePrompt is what the bot asks for right after a mode is chosen.
func modePrompt(mode llm.Mode) (prompt string) {
	switch mode {
	case llm.ModeMatch, llm.ModeCover:
		prompt = "Please send the job vacancy first: a link, the text, or a file."
	case llm.ModeHR:
		prompt = "Please send your CV for review"
	case llm.ModeStep:
		prompt = "Please upload your CV to start the step-by-step review"
	default:
		prompt = "Please upload your CV"
	}
	return prompt
}

func reviewButtons() (rows [][]Button) {
	rows = [][]Button{{
		{Label: "✏️ Edit", Data: CallbackEdit},
		{Label: "⏭ Skip", Data: CallbackSkip},
	}}
	return rows
}

func cancelButtons() (rows [][]Button) {
	rows = [][]Button{{{Label: "↩️ Cancel edit", Data: CallbackCancel}}}
	return rows
}

func pdfButtons() (rows [][]Button) {
	rows = [][]Button{{{Label: "💾 Download PDF version", Data: CallbackPDF}}}
	return rows
}
