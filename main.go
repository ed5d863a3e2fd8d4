package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/go-scripts/reviews/internal/config"
	"github.com/go-scripts/reviews/internal/inference"
	"github.com/go-scripts/reviews/internal/metrics"
	"github.com/go-scripts/reviews/internal/pipeline"
	"github.com/go-scripts/reviews/pkg/browser"
)

// CLI is the command line of the reviews binary
type CLI struct {
	config.Globals

	Serve   ServeCmd   `cmd:"" help:"Run the review extraction HTTP service."`
	Extract ExtractCmd `cmd:"" help:"Extract reviews from one or more pages."`
}

// Context is passed to every command's Run method
type Context struct {
	*config.Globals
	Logger *log.Logger
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("reviews"),
		kong.Description("Extract customer reviews from product pages."),
		kong.UsageOnError(),
		kong.Vars(config.Vars()),
		kong.Configuration(config.YAML, "config.yaml"),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building command line: %v\n", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := config.NewLogger(os.Stderr, cli.LogLevel, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	if err := kctx.Run(&Context{Globals: &cli.Globals, Logger: logger}); err != nil {
		logger.Error("Command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// newInferrer builds the model client, wrapped in the Redis cache when one
// is configured.
func newInferrer(g *config.Globals, logger *log.Logger, m *metrics.Metrics) (inference.Inferrer, func() error, error) {
	var inferrer inference.Inferrer = inference.NewClient(g.LLM.InferenceConfig())
	if g.Cache.RedisURL == "" {
		return inferrer, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(g.Cache.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	cached := inference.NewCachingInferrer(inferrer, rdb, g.Cache.TTL, logger).WithObserver(m)
	logger.Info("Selector cache enabled", "addr", opts.Addr, "ttl", g.Cache.TTL)
	return cached, rdb.Close, nil
}

// newPipeline wires the browser and inference into an extraction pipeline
func newPipeline(g *config.Globals, logger *log.Logger, m *metrics.Metrics) (*pipeline.Pipeline, func() error, error) {
	inferrer, closeCache, err := newInferrer(g, logger, m)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(
		browser.NewChrome(g.Browser.Options()),
		inferrer,
		pipeline.WithLogger(logger),
		pipeline.WithNavigationTimeout(g.Browser.NavigationTimeout),
		pipeline.WithMetrics(m),
	)
	return p, closeCache, nil
}

// checkEnvironment logs what the service will run with
func checkEnvironment(logger *log.Logger, g *config.Globals, port int) {
	logger.Info("Environment check",
		"port", port,
		"api_key_set", g.LLM.APIKey != "",
		"model", g.LLM.Model,
		"redis", g.Cache.RedisURL != "",
	)
	if g.LLM.APIKey == "" {
		logger.Warn("No API key configured; selector inference will fail", "env", "GEMINI_API_KEY")
	}
}
