package nlp

import (
	"fmt"
	"strings"

	datautils "github.com/soumitsalman/data-utils"
	"github.com/tmc/langchaingo/prompts"
)

type PromptConfigError string

func (err PromptConfigError) Error() string {
	return string(err)
}

// PromptConfig is the fixed few-shot prompt every classification is rendered from.
// It is built once and never changes afterwards.
type PromptConfig struct {
	prefix   string
	suffix   string
	examples []LabeledExample
	template *prompts.FewShotPrompt
}

func DefaultPromptConfig() *PromptConfig {
	// the built-in values are known to be valid
	cfg, err := NewPromptConfig(_CLASSIFICATION_INSTRUCTION, _CLASSIFICATION_QUESTION, _mess_review_samples)
	if err != nil {
		panic(err)
	}
	return cfg
}

// NewPromptConfig builds a prompt config. suffix is a go template and must reference {{.input}}.
func NewPromptConfig(prefix, suffix string, examples []LabeledExample) (*PromptConfig, error) {
	if err := validateExamples(examples); err != nil {
		return nil, err
	}
	if !strings.Contains(suffix, "{{."+_INPUT_KEY+"}}") {
		return nil, PromptConfigError("suffix must contain {{." + _INPUT_KEY + "}}")
	}

	examples = append([]LabeledExample{}, examples...)
	template, err := prompts.NewFewShotPrompt(
		prompts.NewPromptTemplate(_EXAMPLE_TEMPLATE, []string{_PHRASE_KEY, _CLASS_KEY}),
		datautils.Transform(examples, func(item *LabeledExample) map[string]string {
			return map[string]string{_PHRASE_KEY: item.Phrase, _CLASS_KEY: string(item.Label)}
		}),
		nil,
		prefix,
		suffix,
		[]string{_INPUT_KEY},
		nil,
		_EXAMPLE_SEPARATOR,
		prompts.TemplateFormatGoTemplate,
		false,
	)
	if err != nil {
		return nil, fmt.Errorf("building few-shot prompt: %w", err)
	}
	cfg := &PromptConfig{
		prefix:   prefix,
		suffix:   suffix,
		examples: examples,
		template: template,
	}
	// prefix and suffix may only reference {{.input}}; anything else would fail every request
	if _, err := cfg.Render(""); err != nil {
		return nil, PromptConfigError(fmt.Sprintf("prompt template does not render: %v", err))
	}
	return cfg, nil
}

func (cfg *PromptConfig) Prefix() string { return cfg.prefix }

func (cfg *PromptConfig) Suffix() string { return cfg.suffix }

// Examples returns a copy of the configured examples in prompt order.
func (cfg *PromptConfig) Examples() []LabeledExample {
	return append([]LabeledExample{}, cfg.examples...)
}

// Render produces the full prompt for input. input is inserted as a template value, never parsed.
func (cfg *PromptConfig) Render(input string) (string, error) {
	return cfg.template.Format(map[string]any{_INPUT_KEY: input})
}

func validateExamples(examples []LabeledExample) error {
	if len(examples) == 0 {
		return PromptConfigError("at least one labeled example is required")
	}
	for i, ex := range examples {
		switch {
		case strings.TrimSpace(ex.Phrase) == "":
			return PromptConfigError(fmt.Sprintf("example %d has an empty phrase", i))
		case ex.Label != ALPHA && ex.Label != BETA:
			return PromptConfigError(fmt.Sprintf("example %d has unknown class %q", i, ex.Label))
		// phrases become part of the assembled template
		case strings.Contains(ex.Phrase, "{{") || strings.Contains(ex.Phrase, "}}"):
			return PromptConfigError(fmt.Sprintf("example %d contains template delimiters", i))
		}
	}
	return nil
}
