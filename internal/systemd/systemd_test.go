package systemd_test

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgfeed/dgfeed/internal/systemd"
)

type testLogger struct {
	messages []string
}

func (tl *testLogger) logf(format string, args ...any) {
	tl.messages = append(tl.messages, fmt.Sprintf(format, args...))
}

func listenNotify(t *testing.T) (*net.UnixConn, func(string) string) {
	socketPath := filepath.Join(t.TempDir(), "notify.sock")

	l, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: socketPath, Net: "unixgram"})
	if err != nil {
		t.Fatalf("Failed to listen on unixgram socket: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	environ := map[string]string{"NOTIFY_SOCKET": socketPath}
	return l, func(k string) string { return environ[k] }
}

func TestNotify(t *testing.T) {
	t.Parallel()

	tl := &testLogger{}
	l, getenv := listenNotify(t)

	systemd.Notify(getenv, tl.logf, systemd.Ready)

	buf := make([]byte, 512)
	n, _, err := l.ReadFromUnix(buf)
	if err != nil {
		t.Fatalf("Failed to read from unixgram socket: %v", err)
	}

	if got := string(buf[:n]); got != "READY=1" {
		t.Errorf("Expected to receive READY=1, but got %s", got)
	}
}

func TestNotifyNotUnderSystemd(t *testing.T) {
	t.Parallel()

	tl := &testLogger{}
	systemd.Notify(func(string) string { return "" }, tl.logf, systemd.Ready)
	if len(tl.messages) != 0 {
		t.Errorf("Expected no log messages, got %v", tl.messages)
	}
}

func TestWatchdogLoop(t *testing.T) {
	t.Parallel()

	tl := &testLogger{}
	l, getenv := listenNotify(t)
	environ := func(k string) string {
		if k == "WATCHDOG_USEC" {
			return "250000" // 0.25 second
		}
		return getenv(k)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go systemd.WatchdogLoop(ctx, environ, tl.logf)

	buf := make([]byte, 512)
	n, _, err := l.ReadFromUnix(buf)
	if err != nil {
		t.Fatalf("Failed to read from unixgram socket: %v", err)
	}

	if got := string(buf[:n]); got != "WATCHDOG=1" {
		t.Errorf("Expected to receive WATCHDOG=1, but got %s", got)
	}

	cancel()

	// Clear the buffer and try to read again; there should be no more
	// messages.
	l.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	n, _, err = l.ReadFromUnix(buf)
	if err == nil && n > 0 {
		t.Errorf("Expected no more messages, but got %s", string(buf[:n]))
	}
}
