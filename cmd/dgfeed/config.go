// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/dgfeed/dgfeed/internal/cli"
	"github.com/dgfeed/dgfeed/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// config holds settings read from the environment.
type config struct {
	backend      string
	llmURL       string
	llmModel     string
	llmAPIKey    string
	geminiAPIKey string
	geminiModel  string

	maxChars int
	language string

	addr     string
	schedule string

	slogLevel *slog.LevelVar
}

var (
	errNoLLMURL    = errors.New("LLM_URL environment variable is not set")
	errNoGeminiKey = errors.New("GEMINI_API_KEY environment variable is not set")
)

func loadConfig(env *cli.Env) (*config, error) {
	cfg := &config{
		backend:      cmp.Or(env.Getenv("SUMMARY_BACKEND"), "openai"),
		llmURL:       env.Getenv("LLM_URL"),
		llmModel:     cmp.Or(env.Getenv("LLM_MODEL"), "llama3"),
		llmAPIKey:    env.Getenv("LLM_API_KEY"),
		geminiAPIKey: env.Getenv("GEMINI_API_KEY"),
		geminiModel:  cmp.Or(env.Getenv("GEMINI_MODEL"), "gemini-1.5-flash"),
		language:     cmp.Or(env.Getenv("SUMMARY_LANGUAGE"), "English"),
		addr:         cmp.Or(env.Getenv("ADDR"), "localhost:8000"),
		schedule:     cmp.Or(env.Getenv("SCHEDULE"), "0 7 * * *"),
		maxChars:     1800,
		slogLevel:    new(slog.LevelVar),
	}

	switch cfg.backend {
	case "openai":
		if cfg.llmURL == "" {
			return nil, errNoLLMURL
		}
	case "gemini":
		if cfg.geminiAPIKey == "" {
			return nil, errNoGeminiKey
		}
	default:
		return nil, fmt.Errorf("unknown summary backend %q", cfg.backend)
	}

	if maxChars := env.Getenv("SUMMARY_MAX_CHARS"); maxChars != "" {
		n, err := strconv.Atoi(maxChars)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SUMMARY_MAX_CHARS value %q", maxChars)
		}
		cfg.maxChars = n
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cmp.Or(env.Getenv("LOG_LEVEL"), "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.slogLevel.Set(level)

	return cfg, nil
}

// feed is a source to be fetched, summarized and posted to a Discord webhook.
type feed struct {
	name        string
	url         string
	webhook     string
	maxArticles int
	blockRule   *starlark.Function
	keepRule    *starlark.Function
}

var feedNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// parseFeeds evaluates the Starlark configuration and returns the list of
// feeds defined in it.
func parseFeeds(path, src string, logf logger.Logf) ([]*feed, error) {
	var feeds []*feed

	predeclared := starlark.StringDict{
		"feed": starlark.NewBuiltin("feed", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			fd := new(feed)
			var maxArticles starlark.Int
			if err := starlark.UnpackArgs(b.Name(), args, kwargs,
				"name", &fd.name,
				"url", &fd.url,
				"webhook", &fd.webhook,
				"max_articles?", &maxArticles,
				"block_rule?", &fd.blockRule,
				"keep_rule?", &fd.keepRule,
			); err != nil {
				return nil, err
			}
			if n, ok := maxArticles.Int64(); ok && n > 0 {
				fd.maxArticles = int(n)
			} else {
				fd.maxArticles = 5
			}
			feeds = append(feeds, fd)
			return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
				"name":    starlark.String(fd.name),
				"url":     starlark.String(fd.url),
				"webhook": starlark.String(fd.webhook),
			}), nil
		}),
	}

	thread := &starlark.Thread{
		Name: "dgfeed",
		Print: func(thread *starlark.Thread, msg string) {
			logf("config: %s", msg)
		},
	}
	opts := &syntax.FileOptions{
		TopLevelControl: true,
	}
	if _, err := starlark.ExecFileOptions(opts, thread, path, src, predeclared); err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, fmt.Errorf("evaluating config: %s", evalErr.Backtrace())
		}
		return nil, fmt.Errorf("evaluating config: %w", err)
	}

	if len(feeds) == 0 {
		return nil, errors.New("no feeds defined in config")
	}

	names := make(map[string]bool)
	for _, fd := range feeds {
		if !feedNameRe.MatchString(fd.name) {
			return nil, fmt.Errorf("invalid feed name %q: must match %s", fd.name, feedNameRe)
		}
		if names[fd.name] {
			return nil, fmt.Errorf("duplicate feed name %q", fd.name)
		}
		names[fd.name] = true
		if fd.url == "" {
			return nil, fmt.Errorf("feed %q: url is empty", fd.name)
		}
		if fd.webhook == "" {
			return nil, fmt.Errorf("feed %q: webhook is empty", fd.name)
		}
	}

	return feeds, nil
}
