package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/fetch"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
	"github.com/Sternrassler/storefront-facets/pkg/prefetch"
	"github.com/Sternrassler/storefront-facets/pkg/reconcile"
)

// Config is the facet-render configuration. Values come from the
// environment, then the optional YAML file, then command-line flags.
type Config struct {
	BaseURL  string             `yaml:"base_url"`
	Path     string             `yaml:"path"`
	Query    string             `yaml:"query"`
	Checks   []string           `yaml:"checks"`
	Remove   int                `yaml:"remove"`
	RedisURL string             `yaml:"redis_url"`
	CacheTTL time.Duration      `yaml:"cache_ttl"`
	Stale    engine.StalePolicy `yaml:"stale"`
	Addr     string             `yaml:"addr"`
	HTML     bool               `yaml:"html"`
	Warm     bool               `yaml:"warm"`

	Fetch     fetch.Config     `yaml:"fetch"`
	Reconcile reconcile.Config `yaml:"reconcile"`
	Prefetch  prefetch.Config  `yaml:"prefetch"`
	Log       logging.Config   `yaml:"log"`
}

func defaultConfig() Config {
	baseURL := getEnv("BASE_URL", "http://localhost:9292")
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(getEnv("LOG_LEVEL", string(logging.LevelInfo)))
	logCfg.Pretty = getEnv("LOG_PRETTY", "") == "true"

	fetchCfg := fetch.DefaultConfig(baseURL)
	fetchCfg.UserAgent = getEnv("USER_AGENT", fetchCfg.UserAgent)

	reconcileCfg := reconcile.DefaultConfig()
	reconcileCfg.HeaderOffset = getEnvInt("HEADER_OFFSET", reconcileCfg.HeaderOffset)

	return Config{
		BaseURL:   baseURL,
		Path:      getEnv("LISTING_PATH", "/collections/all"),
		Remove:    -1,
		RedisURL:  getEnv("REDIS_URL", ""),
		Stale:     engine.StalePolicy(getEnv("STALE_POLICY", string(engine.ApplyAll))),
		Addr:      getEnv("ADDR", ""),
		Fetch:     fetchCfg,
		Reconcile: reconcileCfg,
		Prefetch:  prefetch.DefaultConfig(),
		Log:       logCfg,
	}
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// loadConfig builds the configuration from env, file and args.
func loadConfig(args []string, stderr io.Writer) (Config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("facet-render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", getEnv("FACET_RENDER_CONFIG", ""), "YAML config file")
	baseURL := fs.String("base-url", cfg.BaseURL, "storefront origin")
	path := fs.String("path", cfg.Path, "listing path")
	q := fs.String("query", "", "canonical query to render, e.g. filter.v.option.color=Red")
	var checks stringList
	fs.Var(&checks, "check", "check the filter control name=value before rendering (repeatable)")
	remove := fs.Int("remove", -1, "remove the n-th active filter pill of the rendered page")
	redisURL := fs.String("redis", cfg.RedisURL, "Redis URL for a shared fragment cache")
	stale := fs.String("stale", string(cfg.Stale), "stale response policy: apply-all or latest-only")
	addr := fs.String("addr", cfg.Addr, "serve /render on this address instead of rendering once")
	html := fs.Bool("html", false, "print the reconciled page instead of a summary")
	warm := fs.Bool("warm", false, "prefetch the fragments one filter click away from the result")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := readConfigFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
			cfg.Fetch.BaseURL = *baseURL
		case "path":
			cfg.Path = *path
		case "query":
			cfg.Query = *q
		case "check":
			cfg.Checks = checks
		case "remove":
			cfg.Remove = *remove
		case "redis":
			cfg.RedisURL = *redisURL
		case "stale":
			cfg.Stale = engine.StalePolicy(*stale)
		case "addr":
			cfg.Addr = *addr
		case "html":
			cfg.HTML = *html
		case "warm":
			cfg.Warm = *warm
		}
	})

	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = cfg.BaseURL
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fileBase := cfg.BaseURL
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	// A base_url in the file also applies to the fetcher unless the file
	// sets fetch.base_url itself.
	if cfg.BaseURL != fileBase && cfg.Fetch.BaseURL == fileBase {
		cfg.Fetch.BaseURL = cfg.BaseURL
	}
	return nil
}

func (c Config) validate() error {
	var errs []error
	if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
		errs = append(errs, fmt.Errorf("path must start with '/' (got %q)", c.Path))
	}
	switch c.Stale {
	case engine.ApplyAll, engine.LatestOnly:
	default:
		errs = append(errs, fmt.Errorf("unknown stale policy %q", c.Stale))
	}
	for _, check := range c.Checks {
		if !strings.Contains(check, "=") {
			errs = append(errs, fmt.Errorf("check %q is not name=value", check))
		}
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache_ttl must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
