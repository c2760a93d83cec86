// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestServeStartsAndStops(t *testing.T) {
	t.Parallel()

	a := testApp(t, testMux(t, nil), testConfig)
	a.cfg.addr = "localhost:0"
	a.cfg.schedule = "0 7 * * *"

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	if err := a.serve(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestServeRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	a := testApp(t, testMux(t, nil), testConfig)
	a.cfg.addr = "localhost:0"
	a.cfg.schedule = "every day at dawn"

	err := a.serve(context.Background())
	if err == nil {
		t.Fatal("want an error for an invalid schedule, got nil")
	}
	if !strings.Contains(err.Error(), "invalid schedule") {
		t.Fatalf("want an invalid schedule error, got %v", err)
	}
}
