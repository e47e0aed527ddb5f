package nlp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	_OLLAMA_TAGS   = "/api/tags"
	_PROBE_TIMEOUT = 5 * time.Second
)

type ollamaModel struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type ollamaTags struct {
	Models []ollamaModel `json:"models"`
}

// ModelStatus reports whether the model server is reachable and has the model pulled.
type ModelStatus struct {
	Reachable bool   `json:"reachable"`
	Available bool   `json:"available"`
	Model     string `json:"model"`
}

// ProbeOllama lists the models pulled on an Ollama server and looks for model.
// A model name without a tag matches any tag of it.
func ProbeOllama(ctx context.Context, server_url, model string) (*ModelStatus, error) {
	server_url = defaultString(server_url, _DEFAULT_OLLAMA_URL)
	model = defaultString(model, _DEFAULT_OLLAMA_MODEL)
	status := &ModelStatus{Model: model}

	var tags ollamaTags
	resp, err := resty.New().
		SetBaseURL(server_url).
		SetTimeout(_PROBE_TIMEOUT).
		SetHeader("Accept", "application/json").
		R().
		SetContext(ctx).
		SetResult(&tags).
		Get(_OLLAMA_TAGS)
	if err != nil {
		return status, fmt.Errorf("[ollama%s] request failed: %w", _OLLAMA_TAGS, err)
	}
	if resp.IsError() {
		return status, fmt.Errorf("[ollama%s] returned status %d", _OLLAMA_TAGS, resp.StatusCode())
	}

	status.Reachable = true
	for _, m := range tags.Models {
		if matchesModel(m.Name, model) || matchesModel(m.Model, model) {
			status.Available = true
			break
		}
	}
	return status, nil
}

func matchesModel(pulled, wanted string) bool {
	if pulled == "" {
		return false
	}
	if pulled == wanted {
		return true
	}
	if !strings.Contains(wanted, ":") {
		name, _, _ := strings.Cut(pulled, ":")
		return name == wanted
	}
	return false
}
