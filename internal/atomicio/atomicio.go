// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package atomicio provides atomic file writing with backups.
package atomicio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	backupTimeFormat = "20060102150405.999999999"
	maxBackups       = 10
)

// WriteFile writes data to a file atomically. It creates a backup of the
// original file if it exists, and prunes old backups.
func WriteFile(name string, data []byte, perm fs.FileMode) (err error) {
	// The temporary file must be in the same directory so the final
	// os.Rename stays on one filesystem and remains atomic.
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if _, err := os.Stat(name); err == nil {
		backupName := name + "." + time.Now().UTC().Format(backupTimeFormat) + ".bak"
		if err := os.Rename(name, backupName); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.Rename(f.Name(), name); err != nil {
		return err
	}

	return pruneBackups(name)
}

func pruneBackups(name string) error {
	backups, err := filepath.Glob(name + ".*.bak")
	if err != nil {
		return err
	}

	if len(backups) <= maxBackups {
		return nil
	}

	slices.Sort(backups)

	for _, backup := range backups[:len(backups)-maxBackups] {
		if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}
