package llm

import (
	"strings"
	"unicode"
)

// Language is the language a reply is written in.
type Language string

const (
	// English replies target the UK market.
	English Language = "en"
	// Ukrainian replies target the Ukrainian market.
	Ukrainian Language = "uk"
)

// ukrainianLetters only occur in Ukrainian among Cyrillic scripts in practice.
const ukrainianLetters = "ІіЇїЄєҐґ"

// DetectLanguage guesses the language of a CV by its script.
func DetectLanguage(text string) (lang Language) {
	lang = English
	if text == "" {
		return lang
	}

	if strings.ContainsAny(text, ukrainianLetters) {
		lang = Ukrainian
		return lang
	}

	var cyrillic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}

	if cyrillic > latin {
		lang = Ukrainian
	}

	return lang
}

// Locale holds the market, style and reply-language instructions for a prompt.
type Locale struct {
	Market string
	Style  string
	Reply  string
}

// LocaleFor returns the prompt notes for a language.
func LocaleFor(lang Language) (locale Locale) {
	if lang == Ukrainian {
		locale = Locale{
			Market: "Орієнтуйся на ринок праці України.",
			Style: "Враховуй звичні для України підходи до резюме (може бути 1–2 сторінки, " +
				"обережно з особистими даними; сфокусуйся на досягненнях і релевантних навичках). " +
				"Поясни, як підвищити ATS-сумісність українською. " +
				"За потреби зазнач, як адаптувати формат і розділи відповідно до очікувань роботодавців в Україні.",
			Reply: "Відповідай українською мовою.",
		}
		return locale
	}

	locale = Locale{
		Market: "Target the United Kingdom job market.",
		Style: "Use UK CV conventions (no photo or date of birth, concise bullet points, UK spelling, " +
			"ATS-friendly formatting, clear impact metrics). " +
			"If appropriate, reference UK norms such as responsibilities vs achievements and tailored skills.",
		Reply: "Respond in English (UK).",
	}
	return locale
}

// UKNotice is prepended to English results. Ukrainian results get none.
func UKNotice(lang Language) (notice string) {
	if lang != English {
		return notice
	}

	notice = "🇬🇧 This feedback follows UK CV conventions: no photo, no date of birth, " +
		"British spelling, and achievements backed by numbers."
	return notice
}
