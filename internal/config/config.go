// Package config holds the flags shared by every command and the loaders
// that feed them from the environment, .env files and a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/go-scripts/reviews/internal/inference"
	"github.com/go-scripts/reviews/pkg/browser"
)

// Globals are available to every subcommand. A flag on the command line
// wins over the config file and the environment.
type Globals struct {
	Config kong.ConfigFlag `help:"Path to a YAML configuration file."`

	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"info" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format (${enum})." enum:"text,json,logfmt" default:"text" env:"LOG_FORMAT"`

	LLM     LLM     `embed:"" prefix:"llm-" group:"Model"`
	Browser Browser `embed:"" prefix:"browser-" group:"Browser"`
	Cache   Cache   `embed:"" prefix:"cache-" group:"Cache"`
}

// LLM configures selector inference
type LLM struct {
	APIKey      string        `name:"api-key" help:"API key for the generative model." env:"GEMINI_API_KEY"`
	BaseURL     string        `name:"base-url" help:"OpenAI-compatible endpoint." default:"${llm_base_url}" env:"LLM_BASE_URL"`
	Model       string        `help:"Model name." default:"${llm_model}" env:"LLM_MODEL"`
	Temperature float32       `help:"Sampling temperature." default:"0.2"`
	Timeout     time.Duration `help:"Timeout for one model call." default:"60s" env:"LLM_TIMEOUT"`
	JSONMode    bool          `name:"json-mode" help:"Ask the endpoint for a JSON object response." env:"LLM_JSON_MODE"`
}

// Browser configures Chrome
type Browser struct {
	ChromePath        string        `name:"chrome-path" help:"Chrome or Chromium executable." env:"CHROME_PATH"`
	Headless          bool          `help:"Run the browser headless." default:"true" negatable:""`
	UserAgent         string        `name:"user-agent" help:"Override the browser user agent."`
	NavigationTimeout time.Duration `name:"navigation-timeout" help:"Page load timeout." default:"30s"`
	SettleDelay       time.Duration `name:"settle-delay" help:"Wait after load for late content." default:"2s"`
}

// Cache configures the optional Redis selector cache
type Cache struct {
	RedisURL string        `name:"redis-url" help:"Redis URL; caching is off when empty." env:"REDIS_URL"`
	TTL      time.Duration `help:"How long inferred selectors are kept." default:"24h"`
}

// Vars supplies the interpolated defaults used in the struct tags above
func Vars() kong.Vars {
	return kong.Vars{
		"llm_base_url": inference.DefaultBaseURL,
		"llm_model":    inference.DefaultModel,
	}
}

// InferenceConfig maps the flags to a client configuration
func (l LLM) InferenceConfig() inference.Config {
	return inference.Config{
		APIKey:      l.APIKey,
		BaseURL:     l.BaseURL,
		Model:       l.Model,
		Temperature: l.Temperature,
		Timeout:     l.Timeout,
		JSONMode:    l.JSONMode,
	}
}

// Options maps the flags to launcher options
func (b Browser) Options() browser.Options {
	return browser.Options{
		Headless:    b.Headless,
		ExecPath:    b.ChromePath,
		UserAgent:   b.UserAgent,
		SettleDelay: b.SettleDelay,
	}
}

// LoadDotEnv loads variables from the given files without overriding ones
// already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// YAML is a kong.ConfigurationLoader. Keys match flag names with dashes or
// underscores, or nest by the flag's prefix: "llm-model", "llm_model" and
// llm: {model: ...} all set --llm-model.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML configuration: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
			if raw, ok := values[key]; ok {
				return raw, nil
			}
		}

		section, rest, ok := strings.Cut(flag.Name, "-")
		if !ok {
			return nil, nil
		}
		nested, ok := values[section].(map[string]any)
		if !ok {
			return nil, nil
		}
		for _, key := range []string{rest, strings.ReplaceAll(rest, "-", "_")} {
			if raw, ok := nested[key]; ok {
				return raw, nil
			}
		}
		return nil, nil
	}
	return f, nil
}

// NewLogger builds the process logger
func NewLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	formatter := log.TextFormatter
	switch format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}
