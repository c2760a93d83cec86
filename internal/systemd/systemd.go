// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd lets long-running services signal readiness and update the
// watchdog timestamp through the sd_notify protocol.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dgfeed/dgfeed/internal/logger"
)

// State is a sd-notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that service startup is finished.
	Ready State = "READY=1"

	// Watchdog tells the service manager to update the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Notify sends a message to the service manager using the sd_notify
// protocol. It is a no-op when the service isn't running under systemd
// (NOTIFY_SOCKET is not set in getenv). Errors are logged to logf.
func Notify(getenv func(string) string, logf logger.Logf, state State) {
	addr := &net.UnixAddr{
		Net:  "unixgram",
		Name: getenv("NOTIFY_SOCKET"),
	}
	if addr.Name == "" {
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		logf("systemd: failed when notifying: %v", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		logf("systemd: failed when notifying: %v", err)
	}
}

// WatchdogLoop periodically updates the systemd watchdog timestamp at the
// interval requested by the service manager through WATCHDOG_USEC. It should
// run in a separate goroutine and stops when ctx is canceled. Errors are
// logged to logf.
func WatchdogLoop(ctx context.Context, getenv func(string) string, logf logger.Logf) {
	usec := getenv("WATCHDOG_USEC")
	if usec == "" {
		return
	}

	interval, err := watchdogInterval(usec)
	if err != nil {
		logf("%v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Notify(getenv, logf, Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	s, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("systemd: error converting WATCHDOG_USEC: %v", err)
	}
	if s <= 0 {
		return 0, errors.New("systemd: WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(s) * time.Microsecond, nil
}
