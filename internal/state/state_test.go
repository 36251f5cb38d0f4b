package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/pstate/internal/lock"
	"github.com/jorge-barreto/pstate/internal/planerr"
)

func writeState(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func readState(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	if !planerr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdate_WritesBackupAndReleasesLock(t *testing.T) {
	dir := writeState(t, "# Project State\n\n**Status:** planning\n**Current Phase:** 1\n")

	err := Update(&lock.Manager{}, dir, func(d *Document) error {
		d.SetField("Status", "building")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := readState(t, dir); !strings.Contains(got, "**Status:** building") {
		t.Fatalf("status not updated: %q", got)
	}
	bak, err := os.ReadFile(Path(dir) + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !strings.Contains(string(bak), "**Status:** planning") {
		t.Fatalf("backup = %q", bak)
	}
	for _, suffix := range []string{".lock", ".tmp"} {
		if _, err := os.Stat(Path(dir) + suffix); !os.IsNotExist(err) {
			t.Errorf("%s left behind", suffix)
		}
	}
}

func TestUpdate_SuccessiveUpdatesPreserveContent(t *testing.T) {
	dir := writeState(t, "# Project State\n\n**Status:** planning\n**Current Phase:** 1\n**Last Activity:** none\n")
	m := &lock.Manager{}
	set := func(field, value string) {
		t.Helper()
		if err := Update(m, dir, func(d *Document) error {
			d.SetField(field, value)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	set("Status", "building")
	set("Current Phase", "2")
	set("Last Activity", "2026-02-11")

	got := readState(t, dir)
	for _, want := range []string{"**Status:** building", "**Current Phase:** 2", "**Last Activity:** 2026-02-11"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestUpdate_RecoversStaleLock(t *testing.T) {
	dir := writeState(t, "# Project State\n\n**Status:** planning\n")
	lockPath := Path(dir) + ".lock"
	os.WriteFile(lockPath, []byte("99999"), 0644)
	old := time.Now().Add(-10 * time.Second)
	os.Chtimes(lockPath, old, old)

	err := Update(&lock.Manager{}, dir, func(d *Document) error {
		d.SetField("Status", "building")
		return nil
	})
	if err != nil {
		t.Fatalf("update should succeed despite stale lock: %v", err)
	}
	if !strings.Contains(readState(t, dir), "**Status:** building") {
		t.Fatal("update not applied")
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatal("stale lock should be removed")
	}
}

func TestUpdate_FreshLockIsBusy(t *testing.T) {
	dir := writeState(t, "**Status:** planning\n")
	os.WriteFile(Path(dir)+".lock", []byte(`{"pid":1}`), 0644)

	err := Update(&lock.Manager{}, dir, func(d *Document) error {
		d.SetField("Status", "building")
		return nil
	})
	if !planerr.IsBusy(err) {
		t.Fatalf("expected BusyError, got %v", err)
	}
	if !strings.Contains(readState(t, dir), "planning") {
		t.Fatal("document must not change when busy")
	}
}

func TestSave_RefusesConcurrentModification(t *testing.T) {
	dir := writeState(t, "**Status:** planning\n")
	d, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(Path(dir), []byte("**Status:** edited elsewhere\n"), 0644)

	d.SetField("Status", "building")
	if err := d.Save(); !planerr.IsBusy(err) {
		t.Fatalf("expected BusyError, got %v", err)
	}
	if got := readState(t, dir); got != "**Status:** edited elsewhere\n" {
		t.Fatalf("concurrent edit was overwritten: %q", got)
	}
}

func TestUpdate_NoChangeSkipsWrite(t *testing.T) {
	dir := writeState(t, "**Status:** planning\n")
	if err := Update(&lock.Manager{}, dir, func(d *Document) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName+".bak")); !os.IsNotExist(err) {
		t.Fatal("unchanged document should not be rewritten")
	}
}
