package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soumitsalman/messreview/nlp"
	"github.com/soumitsalman/messreview/sdk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	_RETRY_DELAY      = time.Second
	_SHUTDOWN_TIMEOUT = 30 * time.Second
	_DB_TIMEOUT       = 10 * time.Second
)

var (
	cfg    *Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "messreview",
	Short: "Classify mess reviews as positive or negative with a few-shot prompted language model",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if file, _ := cmd.Flags().GetString("examples"); file != "" {
			cfg.ExamplesFile = file
		}
		logger = newLogger(&cfg.Log)
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review form and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [review]",
	Short: "Classify one review, streaming the model output to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := buildClassifier(cfg, logger)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		result, err := classifier.ClassifyWithObserver(cmd.Context(), args[0], func(token string) {
			fmt.Fprint(out, token)
		})
		fmt.Fprintln(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sentiment: %s\n", result.Sentiment)
		return nil
	},
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Print the few-shot examples in prompt order",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt_cfg, err := cfg.promptConfig()
		if err != nil {
			return err
		}
		for _, ex := range prompt_cfg.Examples() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ex.Label, ex.Phrase)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("examples", "", "YAML file with prefix, suffix and examples (overrides EXAMPLES_FILE)")
	rootCmd.AddCommand(serveCmd, classifyCmd, examplesCmd)
}

func buildClassifier(cfg *Config, logger *zap.Logger, opts ...nlp.ClassifierOption) (*nlp.Classifier, error) {
	prompt_cfg, err := cfg.promptConfig()
	if err != nil {
		return nil, err
	}
	llm, err := nlp.NewLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	completer := nlp.NewLLMCompleter(llm,
		nlp.WithTemperature(cfg.Temperature),
		nlp.WithTimeout(cfg.Timeout),
		nlp.WithRetry(cfg.RetryAttempts, _RETRY_DELAY),
		nlp.WithCompleterLogger(logger))

	opts = append([]nlp.ClassifierOption{nlp.WithTokenCounter(nlp.CountTokens), nlp.WithLogger(logger)}, opts...)
	return nlp.NewClassifier(prompt_cfg, completer, opts...), nil
}

func runServer(ctx context.Context) error {
	gin.SetMode(cfg.GinMode)

	var opts []nlp.ClassifierOption
	if cfg.StreamToConsole {
		opts = append(opts, nlp.WithObserver(func(token string) { fmt.Fprint(os.Stdout, token) }))
	}
	classifier, err := buildClassifier(cfg, logger, opts...)
	if err != nil {
		return err
	}
	// loads the token encoding before the first request needs it
	go nlp.CountTokens("")

	var recorder sdk.ReviewRecorder
	if cfg.DBConnectionString != "" {
		db_ctx, cancel := context.WithTimeout(context.Background(), _DB_TIMEOUT)
		mongo_recorder, err := sdk.NewMongoRecorder(db_ctx, cfg.DBConnectionString, logger)
		cancel()
		if err != nil {
			logger.Warn("[main] review history unavailable, continuing without it", zap.Error(err))
		} else {
			recorder = mongo_recorder
			defer mongo_recorder.Close(context.Background())
			logger.Info("[main] review history enabled")
		}
	}

	var probe readinessProbe
	if strings.EqualFold(cfg.LLM.Provider, nlp.OLLAMA) {
		probe = func(ctx context.Context) (*nlp.ModelStatus, error) {
			return nlp.ProbeOllama(ctx, cfg.LLM.BaseURL, cfg.LLM.Model)
		}
	}

	analyzer := sdk.NewReviewAnalyzer(classifier, recorder, logger)
	router, _ := newServer(analyzer, classifier.Config().Examples(), probe, logger,
		serverOptions{RateLimit: cfg.RateLimit, RateBurst: cfg.RateBurst})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.writeTimeout(_RETRY_DELAY),
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("[main] starting server", zap.String("address", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("[main] shutting down server")
	shutdown_ctx, cancel := context.WithTimeout(context.Background(), _SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(shutdown_ctx); err != nil {
		logger.Error("[main] server forced to shutdown", zap.Error(err))
	}
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred flush happens on failed commands too.
func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
