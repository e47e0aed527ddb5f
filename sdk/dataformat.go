package sdk

import "github.com/soumitsalman/messreview/nlp"

type Review struct {
	ID           string        `json:"id" bson:"_id"`                                                        // uuid assigned when the review is analyzed
	Text         string        `json:"text" bson:"text"`                                                     // the review as entered, possibly empty
	Sentiment    nlp.Sentiment `json:"sentiment" bson:"sentiment" jsonschema:"enum=Positive,enum=Negative"` // derived from the completion
	Completion   string        `json:"completion" bson:"completion"`                                         // raw model answer
	PromptTokens int           `json:"prompt_tokens,omitempty" bson:"prompt_tokens,omitempty"`
	Created      int64         `json:"created" bson:"created"` // unix seconds
}

type ReviewStats struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Total    int64 `json:"total"`
}
