package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soumitsalman/messreview/nlp"
	"github.com/soumitsalman/messreview/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type completerFunc func(ctx context.Context, prompt string, observer nlp.TokenObserver) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string, observer nlp.TokenObserver) (string, error) {
	return f(ctx, prompt, observer)
}

func answering(completion string) completerFunc {
	return func(context.Context, string, nlp.TokenObserver) (string, error) { return completion, nil }
}

func failing() completerFunc {
	return func(context.Context, string, nlp.TokenObserver) (string, error) {
		return "", errors.New("connection refused")
	}
}

type memoryRecorder struct {
	mu      sync.Mutex
	reviews []sdk.Review
}

func (r *memoryRecorder) Record(_ context.Context, review *sdk.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *memoryRecorder) Recent(_ context.Context, limit int) ([]sdk.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sdk.Review, 0, limit)
	for i := len(r.reviews) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.reviews[i])
	}
	return out, nil
}

func (r *memoryRecorder) CountBySentiment(_ context.Context, sentiment nlp.Sentiment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, review := range r.reviews {
		if review.Sentiment == sentiment {
			n++
		}
	}
	return n, nil
}

type testServer struct {
	router *gin.Engine
	srv    *server
}

func setupTestServer(completer nlp.Completer, recorder sdk.ReviewRecorder, probe readinessProbe) *testServer {
	classifier := nlp.NewClassifier(nlp.DefaultPromptConfig(), completer)
	analyzer := sdk.NewReviewAnalyzer(classifier, recorder, nil)
	router, srv := newServer(analyzer, classifier.Config().Examples(), probe, nil,
		serverOptions{RateLimit: 1000, RateBurst: 1000})
	return &testServer{router: router, srv: srv}
}

func (ts *testServer) do(method, path string, body []byte, content_type string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if content_type != "" {
		req.Header.Set("Content-Type", content_type)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type reviewEnvelope struct {
	Success bool       `json:"success"`
	Data    sdk.Review `json:"data"`
	Error   *ErrorInfo `json:"error"`
	Meta    *MetaInfo  `json:"meta"`
}

func TestIndexPage(t *testing.T) {
	ts := setupTestServer(answering("Alpha"), nil, nil)

	w := ts.do(http.MethodGet, "/", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mess Review Sentiment Analyzer")
	assert.Contains(t, w.Body.String(), "Analyze")
	assert.NotContains(t, w.Body.String(), "Sentiment:</strong>")
}

func TestAnalyzePage(t *testing.T) {
	form := func(review string) []byte {
		return []byte(url.Values{"review": {review}}.Encode())
	}

	t.Run("positive", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, nil)
		w := ts.do(http.MethodPost, "/", form("The food was amazing and fresh."), "application/x-www-form-urlencoded")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<strong>Sentiment:</strong> Positive")
	})

	t.Run("negative", func(t *testing.T) {
		ts := setupTestServer(answering("Beta"), nil, nil)
		w := ts.do(http.MethodPost, "/", form("Terrible service, cold food."), "application/x-www-form-urlencoded")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<strong>Sentiment:</strong> Negative")
	})

	t.Run("completion failure is shown for the request", func(t *testing.T) {
		ts := setupTestServer(failing(), nil, nil)
		w := ts.do(http.MethodPost, "/", form("anything"), "application/x-www-form-urlencoded")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "<strong>Error:</strong>")
		assert.NotContains(t, w.Body.String(), "Sentiment:</strong>")
	})
}

func TestClassifyAPI(t *testing.T) {
	t.Run("classifies text", func(t *testing.T) {
		var got_prompt string
		ts := setupTestServer(completerFunc(func(_ context.Context, prompt string, _ nlp.TokenObserver) (string, error) {
			got_prompt = prompt
			return "alpha", nil
		}), nil, nil)

		w := ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":"Lovely dosa."}`), "application/json")

		require.Equal(t, http.StatusOK, w.Code)
		var resp reviewEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, nlp.POSITIVE, resp.Data.Sentiment)
		assert.Equal(t, "Lovely dosa.", resp.Data.Text)
		assert.Equal(t, "alpha", resp.Data.Completion)
		assert.NotEmpty(t, resp.Data.ID)
		assert.NotEmpty(t, resp.Meta.RequestID)
		assert.True(t, strings.HasSuffix(got_prompt, "Find the class of this phrase: Lovely dosa., based on the previous examples."))
	})

	t.Run("empty text is accepted", func(t *testing.T) {
		ts := setupTestServer(answering("Beta"), nil, nil)
		w := ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":""}`), "application/json")

		require.Equal(t, http.StatusOK, w.Code)
		var resp reviewEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, nlp.NEGATIVE, resp.Data.Sentiment)
	})

	t.Run("missing text is rejected", func(t *testing.T) {
		ts := setupTestServer(answering("Beta"), nil, nil)
		w := ts.do(http.MethodPost, "/api/v1/classify", []byte(`{}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	})

	t.Run("completion failure", func(t *testing.T) {
		ts := setupTestServer(failing(), nil, nil)
		w := ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":"x"}`), "application/json")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		var resp reviewEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "COMPLETION_FAILURE", resp.Error.Code)
	})
}

func TestReviewHistory(t *testing.T) {
	t.Run("disabled without recorder", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/api/v1/reviews", nil, "").Code)
		assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/api/v1/reviews/stats", nil, "").Code)
	})

	t.Run("lists recorded reviews", func(t *testing.T) {
		recorder := &memoryRecorder{}
		ts := setupTestServer(answering("Alpha"), recorder, nil)
		ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":"one"}`), "application/json")
		ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":"two"}`), "application/json")

		w := ts.do(http.MethodGet, "/api/v1/reviews?limit=1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []sdk.Review `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "two", resp.Data[0].Text)

		w = ts.do(http.MethodGet, "/api/v1/reviews/stats", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var stats struct {
			Data sdk.ReviewStats `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, sdk.ReviewStats{Positive: 2, Negative: 0, Total: 2}, stats.Data)
	})

	t.Run("bad limit", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), &memoryRecorder{}, nil)
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/reviews?limit=abc", nil, "").Code)
	})
}

func TestExamplesAndSchema(t *testing.T) {
	ts := setupTestServer(answering("Alpha"), nil, nil)

	w := ts.do(http.MethodGet, "/api/v1/examples", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []nlp.LabeledExample `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, nlp.DefaultExamples(), resp.Data)

	w = ts.do(http.MethodGet, "/api/v1/schema", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sentiment")
	assert.Contains(t, w.Body.String(), "prompt_tokens")
}

func TestHealthAndReady(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, nil)
		w := ts.do(http.MethodGet, "/health", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("ready without probe", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, nil)
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/ready", nil, "").Code)
	})

	t.Run("model not pulled", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, func(context.Context) (*nlp.ModelStatus, error) {
			return &nlp.ModelStatus{Reachable: true, Model: "llama2"}, nil
		})
		w := ts.do(http.MethodGet, "/ready", nil, "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "llama2")
	})

	t.Run("model server unreachable", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, func(context.Context) (*nlp.ModelStatus, error) {
			return &nlp.ModelStatus{Model: "llama2"}, errors.New("dial tcp: refused")
		})
		assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/ready", nil, "").Code)
	})

	t.Run("model available", func(t *testing.T) {
		ts := setupTestServer(answering("Alpha"), nil, func(context.Context) (*nlp.ModelStatus, error) {
			return &nlp.ModelStatus{Reachable: true, Available: true, Model: "llama2"}, nil
		})
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/ready", nil, "").Code)
	})
}

func TestMetrics(t *testing.T) {
	ts := setupTestServer(answering("Alpha"), nil, nil)
	ts.do(http.MethodPost, "/api/v1/classify", []byte(`{"text":"good"}`), "application/json")

	w := ts.do(http.MethodGet, "/metrics", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `messreview_classifications_total{sentiment="Positive"} 1`)
	assert.Contains(t, w.Body.String(), "messreview_classification_duration_seconds")
}

func TestRequestIDAndRateLimit(t *testing.T) {
	classifier := nlp.NewClassifier(nil, answering("Alpha"))
	router, _ := newServer(sdk.NewReviewAnalyzer(classifier, nil, nil), nil, nil, nil,
		serverOptions{RateLimit: 0, RateBurst: 1})

	req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-ID", "custom-request-id-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "custom-request-id-123", w.Header().Get("X-Request-ID"))

	req, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestResponseEnvelope(t *testing.T) {
	ts := setupTestServer(answering("Alpha"), nil, nil)

	t.Run("meta carries the request id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(`{"text":"Good idli."}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "envelope-id-42")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp reviewEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "envelope-id-42", resp.Meta.RequestID)
		assert.NotEmpty(t, resp.Meta.Timestamp)
		assert.Nil(t, resp.Error)
	})

	t.Run("errors omit data", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/v1/reviews", nil, "")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotContains(t, resp, "data")
		assert.Equal(t, _HISTORY_DISABLED, resp["error"].(map[string]any)["code"])
	})
}
