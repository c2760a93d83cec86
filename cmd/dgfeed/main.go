// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dgfeed/dgfeed/internal/api/google/gemini"
	"github.com/dgfeed/dgfeed/internal/api/openai"
	"github.com/dgfeed/dgfeed/internal/cli"
	"github.com/dgfeed/dgfeed/internal/filelock"
	"github.com/dgfeed/dgfeed/internal/httplogger"
	"github.com/dgfeed/dgfeed/internal/logger"
	"github.com/dgfeed/dgfeed/internal/request"
	"github.com/dgfeed/dgfeed/internal/syncx"

	"github.com/mmcdole/gofeed"
)

// Some types of errors that can happen during dgfeed execution.
var (
	errAlreadyRunning = errors.New("already running")
	errNoConfig       = errors.New("configuration file not found")
)

func main() { cli.Main(new(app)) }

func (a *app) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.dry, "dry", false, "Enable dry-run mode: log actions, but don't post or save state.")
	fs.BoolVar(&a.json, "json", false, "Output in JSON format (honored in supported commands).")
	fs.StringVar(&a.configPath, "config", "", "Path to the configuration `file`.")
}

type app struct {
	running atomic.Bool
	init    sync.Once

	// flags
	dry        bool
	json       bool
	configPath string

	// configuration
	cfg      *config
	feeds    []*feed
	stateDir string
	getenv   func(string) string
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time

	// initialized by doInit
	fp       *gofeed.Parser
	httpc    *http.Client
	logf     logger.Logf
	slog     *slog.Logger
	stream   logger.Streamer
	scrubber *strings.Replacer
	openai   *openai.Client
	gemini   *gemini.Client
	store    *stateStore

	lastRun *syncx.Protected[runSummary]
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.resolveStateDir(env); err != nil {
		return err
	}

	a.configPath = cmp.Or(a.configPath, env.Getenv("CONFIG"), filepath.Join(a.stateDir, "config.star"))
	src, err := os.ReadFile(a.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errNoConfig, a.configPath)
		}
		return err
	}

	// Dry runs always log verbosely.
	if a.dry {
		a.cfg.slogLevel.Set(slog.LevelDebug)
	}

	a.init.Do(func() {
		a.doInit(env)
	})

	a.feeds, err = parseFeeds(a.configPath, string(src), a.logf)
	if err != nil {
		return err
	}
	a.scrubber = webhookScrubber(a.feeds)
	a.openai.Scrubber = a.scrubber
	a.gemini.Scrubber = a.scrubber

	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}

	switch command := env.Args[0]; command {
	case "run":
		return a.run(ctx)
	case "serve":
		return a.serve(ctx)
	case "feeds":
		return a.listFeeds(env.Stdout)
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

func (a *app) resolveStateDir(env *cli.Env) error {
	a.stateDir = cmp.Or(a.stateDir, env.Getenv("STATE_DIRECTORY"))
	if a.stateDir == "" {
		xdgStateHome := env.Getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		a.stateDir = filepath.Join(xdgStateHome, "dgfeed")
	}
	return os.MkdirAll(a.stateDir, 0o700)
}

func (a *app) doInit(env *cli.Env) {
	if a.now == nil {
		a.now = time.Now
	}
	if a.httpc == nil {
		a.httpc = request.DefaultClient
	}
	a.getenv = env.Getenv
	a.fp = gofeed.NewParser()
	a.stream = logger.NewStreamer(300)

	out := io.MultiWriter(env.Stderr, a.stream)
	a.logf = log.New(out, "", 0).Printf
	a.slog = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: a.cfg.slogLevel}))

	if a.cfg.slogLevel.Level() <= slog.LevelDebug {
		a.httpc = &http.Client{
			Transport: httplogger.New(a.httpc.Transport, a.logf),
			Timeout:   a.httpc.Timeout,
		}
	}

	a.openai = &openai.Client{
		URL:        a.cfg.llmURL,
		Model:      a.cfg.llmModel,
		APIKey:     a.cfg.llmAPIKey,
		HTTPClient: a.httpc,
	}
	a.gemini = &gemini.Client{
		APIKey:     a.cfg.geminiAPIKey,
		Model:      a.cfg.geminiModel,
		HTTPClient: a.httpc,
	}
	a.store = &stateStore{dir: a.stateDir}
	a.lastRun = syncx.Protect(runSummary{})
}

// webhookScrubber returns a replacer that hides webhook URLs (they embed a
// secret token) in logs and error messages.
func webhookScrubber(feeds []*feed) *strings.Replacer {
	var oldnew []string
	for _, fd := range feeds {
		oldnew = append(oldnew, fd.webhook, "["+fd.name+" webhook]")
	}
	return strings.NewReplacer(oldnew...)
}

// runSummary describes the outcome of a single pipeline pass.
type runSummary struct {
	StartTime       time.Time     `json:"start_time"`
	Duration        time.Duration `json:"duration"`
	FeedsOK         int           `json:"feeds_ok"`
	FeedsFailed     int           `json:"feeds_failed"`
	ArticlesFound   int           `json:"articles_found"`
	ArticlesPosted  int           `json:"articles_posted"`
	ArticlesSkipped int           `json:"articles_skipped"`
}

// run performs one full sequential pass over all configured feeds.
//
// Feeds and articles are processed strictly one at a time. A failing feed or
// article is logged and skipped; it never aborts the pass.
func (a *app) run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer a.running.Store(false)

	// Guard against overlapping runs racing on the state files.
	lock, err := filelock.Acquire(filepath.Join(a.stateDir, ".run.lock"), strconv.Itoa(os.Getpid())+"\n")
	if err != nil {
		if errors.Is(err, filelock.ErrAlreadyLocked) {
			return errAlreadyRunning
		}
		return err
	}
	defer lock.Release()

	sum := runSummary{StartTime: a.now()}

	for _, fd := range a.feeds {
		found, posted, skipped, err := a.processFeed(ctx, fd)
		if err != nil {
			sum.FeedsFailed++
			a.slog.Error("feed failed", "feed", fd.name, "error", scrub(a.scrubber, err))
			continue
		}
		sum.FeedsOK++
		sum.ArticlesFound += found
		sum.ArticlesPosted += posted
		sum.ArticlesSkipped += skipped
		a.slog.Info("feed processed", "feed", fd.name, "found", found, "posted", posted)
	}

	sum.Duration = a.now().Sub(sum.StartTime)
	a.lastRun.Set(sum)

	a.slog.Info("run finished",
		"feeds_ok", sum.FeedsOK,
		"feeds_failed", sum.FeedsFailed,
		"found", sum.ArticlesFound,
		"posted", sum.ArticlesPosted,
		"skipped", sum.ArticlesSkipped,
		"duration", sum.Duration,
	)

	return nil
}

// processFeed runs the fetch → extract → summarize → post pipeline for a
// single feed. It returns the number of new articles found and how many of
// them were posted or skipped.
func (a *app) processFeed(ctx context.Context, fd *feed) (found, posted, skipped int, err error) {
	seen, err := a.store.load(fd.name)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("loading state: %w", err)
	}

	articles, err := a.fetchNew(ctx, fd, seen)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetching feed: %w", err)
	}
	found = len(articles)

	for _, art := range articles {
		if err := a.processArticle(ctx, fd, art, seen); err != nil {
			skipped++
			a.slog.Error("article skipped", "feed", fd.name, "article", art.link, "error", scrub(a.scrubber, err))
			continue
		}
		posted++
	}

	return found, posted, skipped, nil
}

func (a *app) processArticle(ctx context.Context, fd *feed, art *article, seen *processedSet) error {
	text, err := a.extract(ctx, art.link)
	if err != nil {
		// Fall back to the feed-provided description, if there is one.
		text = stripHTML(art.description)
		if text == "" {
			return fmt.Errorf("extracting text: %w", err)
		}
		a.slog.Warn("extraction failed, using feed description", "article", art.link, "error", err)
	}
	art.text = text

	// An article that fails to summarize is left unmarked, so it is retried
	// on the next run.
	art.summary, err = a.summarize(ctx, art.text)
	if err != nil {
		return fmt.Errorf("summarizing: %w", err)
	}

	if err := a.post(ctx, fd, art); err != nil {
		return fmt.Errorf("posting: %w", err)
	}

	if a.dry {
		return nil
	}
	// The ID is recorded only after the webhook accepted the message.
	if seen.add(art.id) {
		if err := a.store.save(fd.name, seen); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
	}
	return nil
}

func scrub(scrubber *strings.Replacer, err error) string {
	if scrubber == nil {
		return err.Error()
	}
	return scrubber.Replace(err.Error())
}

func (a *app) listFeeds(w io.Writer) error {
	if a.json {
		type feedJSON struct {
			Name      string `json:"name"`
			URL       string `json:"url"`
			Processed int    `json:"processed"`
		}

		var feeds []feedJSON
		for _, fd := range a.feeds {
			seen, err := a.store.load(fd.name)
			if err != nil {
				return err
			}
			feeds = append(feeds, feedJSON{Name: fd.name, URL: fd.url, Processed: seen.len()})
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(feeds)
	}

	fmt.Fprintln(w, "NAME                  PROCESSED  URL")
	for _, fd := range a.feeds {
		seen, err := a.store.load(fd.name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s%s\n", pad(fd.name, 22), pad(strconv.Itoa(seen.len()), 11), fd.url)
	}
	return nil
}

func pad(s string, width int) string {
	l := utf8.RuneCountInString(s)
	if l >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-l)
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
