// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package atomicio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgfeed/dgfeed/internal/testutil"
)

func TestWriteFile(t *testing.T) {
	t.Parallel()

	t.Run("new file", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "test.json")
		data := []byte(`["a"]`)

		if err := WriteFile(file, data, 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := os.ReadFile(file)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, string(got), string(data))

		backups, err := filepath.Glob(file + ".*.bak")
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, len(backups), 0)
	})

	t.Run("overwrite keeps backup", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "test.json")

		if err := WriteFile(file, []byte(`["a"]`), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := WriteFile(file, []byte(`["a","b"]`), 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := os.ReadFile(file)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, string(got), `["a","b"]`)

		backups, err := filepath.Glob(file + ".*.bak")
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, len(backups), 1)

		backupData, err := os.ReadFile(backups[0])
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, string(backupData), `["a"]`)
	})

	t.Run("prune", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "test.json")

		for i := range maxBackups + 2 {
			if err := WriteFile(file, []byte{byte('0' + i)}, 0o644); err != nil {
				t.Fatal(err)
			}
			// Backup names are timestamps, keep them unique.
			time.Sleep(2 * time.Millisecond)
		}

		backups, err := filepath.Glob(file + ".*.bak")
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, len(backups), maxBackups)
	})
}
