package review

import (
	"context"
	"strings"

	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/nikogura/cv-coach/pkg/llm"
)

// Reviser produces the replacement body for one section.
type Reviser interface {
	Revise(ctx context.Context, label, text string) (revised string, err error)
}

// GeneratorReviser asks the generation service to polish the user's replacement text.
type GeneratorReviser struct {
	generator llm.Generator
}

// NewGeneratorReviser creates a reviser backed by a generator.
func NewGeneratorReviser(generator llm.Generator) (reviser *GeneratorReviser) {
	reviser = &GeneratorReviser{generator: generator}
	return reviser
}

// Revise implements Reviser. Errors and blank output are generation failures.
func (r *GeneratorReviser) Revise(ctx context.Context, label, text string) (revised string, err error) {
	prompt := llm.BuildRevisionPrompt(label, text)

	var out string
	out, err = r.generator.Generate(ctx, prompt)
	if err != nil {
		err = failure.Wrap(failure.Generation, "revise section", err)
		return revised, err
	}

	revised = llm.CleanText(out)
	if revised == "" {
		err = failure.New(failure.Generation, "revise section", "generation service returned an empty rewrite")
		return revised, err
	}

	return revised, err
}

// VerbatimReviser keeps the user's replacement text as written.
type VerbatimReviser struct{}

// Revise implements Reviser.
func (VerbatimReviser) Revise(_ context.Context, _, text string) (revised string, err error) {
	revised = strings.TrimSpace(text)
	if revised == "" {
		err = failure.New(failure.InvalidDecision, "revise section", "empty revision")
	}
	return revised, err
}
