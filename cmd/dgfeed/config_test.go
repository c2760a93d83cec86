// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgfeed/dgfeed/internal/cli"
	"github.com/dgfeed/dgfeed/internal/testutil"
)

func testEnv(environ map[string]string) *cli.Env {
	return &cli.Env{
		Getenv: func(k string) string { return environ[k] },
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(testEnv(map[string]string{
		"LLM_URL": llmURL,
	}))
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, cfg.backend, "openai")
	testutil.AssertEqual(t, cfg.llmModel, "llama3")
	testutil.AssertEqual(t, cfg.maxChars, 1800)
	testutil.AssertEqual(t, cfg.language, "English")
	testutil.AssertEqual(t, cfg.addr, "localhost:8000")
	testutil.AssertEqual(t, cfg.schedule, "0 7 * * *")
	testutil.AssertEqual(t, cfg.slogLevel.Level(), slog.LevelInfo)
}

func TestLoadConfigRequiresLLMURL(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(testEnv(nil))
	if !errors.Is(err, errNoLLMURL) {
		t.Fatalf("want errNoLLMURL, got %v", err)
	}
}

func TestLoadConfigGeminiBackend(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(testEnv(map[string]string{
		"SUMMARY_BACKEND": "gemini",
	}))
	if !errors.Is(err, errNoGeminiKey) {
		t.Fatalf("want errNoGeminiKey, got %v", err)
	}

	cfg, err := loadConfig(testEnv(map[string]string{
		"SUMMARY_BACKEND": "gemini",
		"GEMINI_API_KEY":  "test",
	}))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, cfg.geminiModel, "gemini-1.5-flash")
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"unknown backend":    {"SUMMARY_BACKEND": "markov"},
		"bad max chars":      {"LLM_URL": llmURL, "SUMMARY_MAX_CHARS": "a lot"},
		"negative max chars": {"LLM_URL": llmURL, "SUMMARY_MAX_CHARS": "-5"},
		"bad log level":      {"LLM_URL": llmURL, "LOG_LEVEL": "LOUD"},
	}

	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := loadConfig(testEnv(environ)); err == nil {
				t.Fatal("want an error, got nil")
			}
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(testEnv(map[string]string{
		"LLM_URL":           llmURL,
		"LLM_MODEL":         "mistral",
		"SUMMARY_MAX_CHARS": "500",
		"SUMMARY_LANGUAGE":  "Russian",
		"LOG_LEVEL":         "DEBUG",
		"ADDR":              "localhost:9999",
		"SCHEDULE":          "@hourly",
	}))
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, cfg.llmModel, "mistral")
	testutil.AssertEqual(t, cfg.maxChars, 500)
	testutil.AssertEqual(t, cfg.language, "Russian")
	testutil.AssertEqual(t, cfg.slogLevel.Level(), slog.LevelDebug)
	testutil.AssertEqual(t, cfg.addr, "localhost:9999")
	testutil.AssertEqual(t, cfg.schedule, "@hourly")
}

func discardLogf(format string, args ...any) {}

func TestParseFeeds(t *testing.T) {
	t.Parallel()

	feeds, err := parseFeeds("config.star", `
feeds = [
    feed(
        name = "tech-news",
        url = "https://example.com/feed.xml",
        webhook = "https://discord.example.com/api/webhooks/123/abc",
    ),
    feed(
        name = "raspberry-pi",
        url = "https://example.com/pi.xml",
        webhook = "https://discord.example.com/api/webhooks/456/def",
        max_articles = 10,
    ),
]
`, discardLogf)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, len(feeds), 2)
	testutil.AssertEqual(t, feeds[0].name, "tech-news")
	testutil.AssertEqual(t, feeds[0].maxArticles, 5)
	testutil.AssertEqual(t, feeds[1].name, "raspberry-pi")
	testutil.AssertEqual(t, feeds[1].maxArticles, 10)
}

func TestParseFeedsErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		config  string
		wantErr string
	}{
		"no feeds": {
			config:  `pass`,
			wantErr: "no feeds defined",
		},
		"syntax error": {
			config:  `feed(`,
			wantErr: "evaluating config",
		},
		"invalid name": {
			config:  `feed(name = "tech news!", url = "https://example.com/feed.xml", webhook = "https://discord.example.com/api/webhooks/1/a")`,
			wantErr: "invalid feed name",
		},
		"duplicate name": {
			config: `
feed(name = "a", url = "https://example.com/1.xml", webhook = "https://discord.example.com/api/webhooks/1/a")
feed(name = "a", url = "https://example.com/2.xml", webhook = "https://discord.example.com/api/webhooks/2/b")
`,
			wantErr: "duplicate feed name",
		},
		"empty url": {
			config:  `feed(name = "a", url = "", webhook = "https://discord.example.com/api/webhooks/1/a")`,
			wantErr: "url is empty",
		},
		"empty webhook": {
			config:  `feed(name = "a", url = "https://example.com/feed.xml", webhook = "")`,
			wantErr: "webhook is empty",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := parseFeeds("config.star", tc.config, discardLogf)
			if err == nil {
				t.Fatal("want an error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
