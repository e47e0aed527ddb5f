package nlp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type promptFile struct {
	Prefix   string           `yaml:"prefix"`
	Suffix   string           `yaml:"suffix"`
	Examples []LabeledExample `yaml:"examples"`
}

// LoadPromptConfig reads a YAML prompt definition. Missing prefix, suffix or examples
// fall back to the built-in ones.
func LoadPromptConfig(path string) (*PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file: %w", err)
	}
	return ParsePromptConfig(data)
}

func ParsePromptConfig(data []byte) (*PromptConfig, error) {
	var file promptFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty file means all defaults
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing prompt file: %w", err)
	}
	return NewPromptConfig(
		defaultString(file.Prefix, _CLASSIFICATION_INSTRUCTION),
		defaultString(file.Suffix, _CLASSIFICATION_QUESTION),
		defaultExamples(file.Examples))
}

func defaultExamples(examples []LabeledExample) []LabeledExample {
	if len(examples) == 0 {
		return _mess_review_samples
	}
	return examples
}
