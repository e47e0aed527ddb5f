package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soumitsalman/messreview/nlp"
	"github.com/soumitsalman/messreview/sdk"
	"go.uber.org/zap"
)

// GET  /                      review form
// POST /                      classify the form field
// POST /api/v1/classify       {"text": "..."}
// GET  /api/v1/reviews?limit=20
// GET  /api/v1/reviews/stats
// GET  /api/v1/examples
// GET  /api/v1/schema
// GET  /health, /ready, /metrics

//go:embed templates/*.html
var templates embed.FS

const (
	_INDEX_PAGE     = "index.html"
	_REVIEW_FIELD   = "review"
	_PROBE_DEADLINE = 5 * time.Second
)

type readinessProbe func(ctx context.Context) (*nlp.ModelStatus, error)

type server struct {
	analyzer *sdk.ReviewAnalyzer
	examples []nlp.LabeledExample
	probe    readinessProbe
	logger   *zap.Logger
	metrics  *metrics
	schema   *jsonschema.Schema
}

type serverOptions struct {
	RateLimit float64
	RateBurst int
}

type pageData struct {
	Review    string
	Sentiment string
	Error     string
}

type classifyRequest struct {
	Text *string `json:"text" binding:"required"`
}

// classifyResponse documents the envelope returned by POST /api/v1/classify
type classifyResponse struct {
	Success bool        `json:"success"`
	Data    *sdk.Review `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta"`
}

func newServer(analyzer *sdk.ReviewAnalyzer, examples []nlp.LabeledExample, probe readinessProbe, logger *zap.Logger, opts serverOptions) (*gin.Engine, *server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &server{
		analyzer: analyzer,
		examples: examples,
		probe:    probe,
		logger:   logger,
		metrics:  newMetrics(),
		schema:   jsonschema.Reflect(&classifyResponse{}),
	}

	router := gin.New()
	router.Use(requestID(), accessLog(logger), recovery(logger))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))

	router.GET("/health", srv.health)
	router.GET("/ready", srv.ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srv.metrics.registry, promhttp.HandlerOpts{})))

	group := router.Group("/")
	group.Use(rateLimiter(opts.RateLimit, opts.RateBurst))
	group.GET("/", srv.indexPage)
	group.POST("/", srv.analyzePage)

	v1 := group.Group("/api/v1")
	{
		v1.POST("/classify", srv.classify)
		v1.GET("/reviews", srv.reviews)
		v1.GET("/reviews/stats", srv.stats)
		v1.GET("/examples", srv.listExamples)
		v1.GET("/schema", srv.responseSchema)
	}
	return router, srv
}

func (srv *server) indexPage(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, _INDEX_PAGE, pageData{})
}

func (srv *server) analyzePage(ctx *gin.Context) {
	text := ctx.PostForm(_REVIEW_FIELD)
	review, err := srv.analyze(ctx.Request.Context(), text)
	if err != nil {
		status, _, message := mapError(err)
		ctx.HTML(status, _INDEX_PAGE, pageData{Review: text, Error: message})
		return
	}
	ctx.HTML(http.StatusOK, _INDEX_PAGE, pageData{Review: text, Sentiment: review.Sentiment.String()})
}

func (srv *server) classify(ctx *gin.Context) {
	var body classifyRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondError(ctx, http.StatusBadRequest, _INVALID_REQUEST, "body must be a JSON object with a text field")
		return
	}
	review, err := srv.analyze(ctx.Request.Context(), *body.Text)
	if err != nil {
		handleError(ctx, err)
		return
	}
	respondSuccess(ctx, http.StatusOK, review)
}

func (srv *server) analyze(ctx context.Context, text string) (*sdk.Review, error) {
	start := time.Now()
	review, err := srv.analyzer.Analyze(ctx, text)
	srv.metrics.classify_timer.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, nlp.ErrCompletionFailure) {
			srv.metrics.failures.Inc()
		}
		srv.logger.Error("[server] classification failed", zap.Error(err))
		return nil, err
	}
	srv.metrics.classified.WithLabelValues(review.Sentiment.String()).Inc()
	return review, nil
}

type historyParams struct {
	Limit int `form:"limit"`
}

func (srv *server) reviews(ctx *gin.Context) {
	var params historyParams
	if ctx.BindQuery(&params) != nil {
		respondError(ctx, http.StatusBadRequest, _INVALID_REQUEST, "limit must be a number")
		return
	}
	reviews, err := srv.analyzer.History(ctx.Request.Context(), params.Limit)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if reviews == nil {
		reviews = []sdk.Review{}
	}
	respondSuccess(ctx, http.StatusOK, reviews)
}

func (srv *server) stats(ctx *gin.Context) {
	stats, err := srv.analyzer.Stats(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}
	respondSuccess(ctx, http.StatusOK, stats)
}

func (srv *server) listExamples(ctx *gin.Context) {
	respondSuccess(ctx, http.StatusOK, srv.examples)
}

func (srv *server) responseSchema(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, srv.schema)
}

func (srv *server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"history": srv.analyzer.HistoryEnabled(),
	})
}

func (srv *server) ready(ctx *gin.Context) {
	if srv.probe == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	probe_ctx, cancel := context.WithTimeout(ctx.Request.Context(), _PROBE_DEADLINE)
	defer cancel()

	status, err := srv.probe(probe_ctx)
	switch {
	case err != nil:
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model server unreachable"})
	case !status.Available:
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model " + status.Model + " is not available"})
	default:
		ctx.JSON(http.StatusOK, gin.H{"status": "ready", "model": status.Model})
	}
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, nlp.ErrCompletionFailure):
		return http.StatusBadGateway, _COMPLETION_FAILURE, "the language model did not return a usable result"
	case errors.Is(err, sdk.ErrHistoryDisabled):
		return http.StatusServiceUnavailable, _HISTORY_DISABLED, "review history is not configured"
	default:
		return http.StatusInternalServerError, _INTERNAL_ERROR, "internal server error"
	}
}

func handleError(ctx *gin.Context, err error) {
	status, code, message := mapError(err)
	respondError(ctx, status, code, message)
}
