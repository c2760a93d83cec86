// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/dgfeed/dgfeed/internal/testutil"
)

func testEnv(args ...string) (*Env, *strings.Builder, *strings.Builder) {
	var stdout, stderr strings.Builder
	return &Env{
		Args:   args,
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRun(t *testing.T) {
	t.Parallel()

	var gotArgs []string
	app := AppFunc(func(_ context.Context, env *Env) error {
		gotArgs = env.Args
		return nil
	})

	env, _, _ := testEnv("hello", "world")
	if err := Run(context.Background(), app, env); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, gotArgs, []string{"hello", "world"})
}

func TestRunPropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("app failed")
	app := AppFunc(func(context.Context, *Env) error { return wantErr })

	env, _, _ := testEnv()
	if err := Run(context.Background(), app, env); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}

func TestRunVersionFlag(t *testing.T) {
	t.Parallel()

	app := AppFunc(func(context.Context, *Env) error {
		t.Fatal("app shouldn't run with -version")
		return nil
	})

	env, _, stderr := testEnv("-version")
	err := Run(context.Background(), app, env)
	if !errors.Is(err, ErrExitVersion) {
		t.Fatalf("want ErrExitVersion, got %v", err)
	}
	if stderr.String() == "" {
		t.Fatal("version output is empty")
	}
}

type flagApp struct {
	verbose bool
	ran     bool
}

func (a *flagApp) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.verbose, "verbose", false, "Be verbose.")
}

func (a *flagApp) Run(context.Context, *Env) error {
	a.ran = true
	return nil
}

func TestRunParsesFlags(t *testing.T) {
	t.Parallel()

	app := new(flagApp)
	env, _, _ := testEnv("-verbose", "run")
	if err := Run(context.Background(), app, env); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, app.verbose, true)
	testutil.AssertEqual(t, app.ran, true)
	testutil.AssertEqual(t, env.Args, []string{"run"})
}

func TestRunInvalidFlag(t *testing.T) {
	t.Parallel()

	app := AppFunc(func(context.Context, *Env) error { return nil })
	env, _, _ := testEnv("-no-such-flag")
	err := Run(context.Background(), app, env)
	if err == nil {
		t.Fatal("want error for unknown flag")
	}
	if isPrintableError(err) {
		t.Fatalf("flag errors should be unprintable, got %v", err)
	}
}
