// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgfeed/dgfeed/internal/systemd"
	"github.com/dgfeed/dgfeed/internal/web"

	"github.com/robfig/cron/v3"
)

// serve starts an HTTP server with liveness and debug endpoints and runs the
// pipeline on the configured cron schedule.
func (a *app) serve(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "dgfeed is running.\n")
	})
	mux.Handle("/debug/log", a.stream)

	health := web.Health(mux)
	health.RegisterFunc("lastRun", func() (status string, ok bool) {
		var sum runSummary
		a.lastRun.RAccess(func(v runSummary) { sum = v })
		if sum.StartTime.IsZero() {
			return "no runs yet", true
		}
		return fmt.Sprintf(
			"last run at %s: %d/%d feeds succeeded, %d articles posted",
			sum.StartTime.Format("2006-01-02 15:04:05"),
			sum.FeedsOK, sum.FeedsOK+sum.FeedsFailed,
			sum.ArticlesPosted,
		), sum.FeedsFailed == 0
	})

	c := cron.New()
	if _, err := c.AddFunc(a.cfg.schedule, func() {
		if err := a.run(ctx); err != nil {
			if errors.Is(err, errAlreadyRunning) {
				a.slog.Warn("scheduled run skipped, previous run still going")
				return
			}
			a.slog.Error("scheduled run failed", "error", scrub(a.scrubber, err))
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.cfg.schedule, err)
	}
	c.Start()
	defer c.Stop()

	a.slog.Info("starting server", "addr", a.cfg.addr, "schedule", a.cfg.schedule)

	systemd.Notify(a.getenv, a.logf, systemd.Ready)
	go systemd.WatchdogLoop(ctx, a.getenv, a.logf)

	return web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Addr: a.cfg.addr,
		Mux:  mux,
		Logf: a.logf,
	})
}
