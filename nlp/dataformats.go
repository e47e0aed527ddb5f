package nlp

// Label is the class tag the few-shot examples teach the model to answer with.
type Label string

const (
	ALPHA Label = "Alpha" // positive
	BETA  Label = "Beta"  // negative
)

type Sentiment string

const (
	POSITIVE Sentiment = "Positive"
	NEGATIVE Sentiment = "Negative"
)

func (s Sentiment) String() string {
	return string(s)
}

type LabeledExample struct {
	Phrase string `json:"phrase" yaml:"phrase" jsonschema_description:"A sample mess review"`
	Label  Label  `json:"class" yaml:"class" jsonschema_description:"Alpha for a positive review, Beta for a negative one"`
}

// Classification is the outcome of one classifier call.
type Classification struct {
	Sentiment    Sentiment `json:"sentiment"`
	Completion   string    `json:"completion"`
	Prompt       string    `json:"-"`
	PromptTokens int       `json:"prompt_tokens,omitempty"`
}
