package nlp

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const _TOKEN_ENCODING = "cl100k_base"

var (
	encoding      *tiktoken.Tiktoken
	encoding_once sync.Once
)

// CountTokens approximates the prompt size in cl100k_base tokens.
// It returns 0 when the encoding cannot be loaded.
func CountTokens(text string) int {
	encoding_once.Do(func() {
		encoding, _ = tiktoken.GetEncoding(_TOKEN_ENCODING)
	})
	if encoding == nil {
		return 0
	}
	return len(encoding.Encode(text, nil, nil))
}
