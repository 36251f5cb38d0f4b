package phase

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Dir is a phase directory on disk.
type Dir struct {
	Number Number
	Name   string // directory name, e.g. "03-features"
	Slug   string // "features"
	Path   string
}

var dirRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:-(.*))?$`)

// ParseDirName splits a phase directory name into number and slug.
func ParseDirName(name string) (Number, string, bool) {
	m := dirRe.FindStringSubmatch(name)
	if m == nil {
		return Number{}, "", false
	}
	n, err := ParseNumber(m[1])
	if err != nil {
		return Number{}, "", false
	}
	return n, m[2], true
}

// ScanDirs lists phase directories sorted by number. A missing phases
// directory yields an empty list. Entries that do not look like phase
// directories are ignored.
func ScanDirs(phasesDir string) ([]Dir, error) {
	entries, err := os.ReadDir(phasesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []Dir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, slug, ok := ParseDirName(e.Name())
		if !ok {
			continue
		}
		dirs = append(dirs, Dir{Number: n, Name: e.Name(), Slug: slug, Path: filepath.Join(phasesDir, e.Name())})
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].Number.Compare(dirs[j].Number) < 0
	})
	return dirs, nil
}

// FindDir returns the directory for n, if any.
func FindDir(dirs []Dir, n Number) (Dir, bool) {
	for _, d := range dirs {
		if d.Number.Equal(n) {
			return d, true
		}
	}
	return Dir{}, false
}

// Plans lists "*-PLAN.md" file names in the directory, sorted.
func (d Dir) Plans() ([]string, error) {
	return d.filesWithSuffix("-PLAN.md")
}

// Summaries lists "*-SUMMARY.md" file names in the directory, sorted.
func (d Dir) Summaries() ([]string, error) {
	return d.filesWithSuffix("-SUMMARY.md")
}

func (d Dir) filesWithSuffix(suffix string) ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// PlanID strips the document suffix from a plan or summary file name:
// "03-02-PLAN.md" -> "03-02".
func PlanID(file string) string {
	for _, suffix := range []string{"-PLAN.md", "-SUMMARY.md"} {
		if strings.HasSuffix(file, suffix) {
			return strings.TrimSuffix(file, suffix)
		}
	}
	return strings.TrimSuffix(file, filepath.Ext(file))
}
