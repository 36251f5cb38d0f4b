package analyze

import (
	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/store"
)

// File kinds accepted by Files.
const (
	KindPlans     = "plans"
	KindSummaries = "summaries"
)

// DirListing is the result of listing phase directories.
type DirListing struct {
	Directories []string `json:"directories"`
	Count       int      `json:"count"`
}

// Directories lists phase directory names in numeric order.
func Directories(s *store.Store) (DirListing, error) {
	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return DirListing{}, err
	}
	out := DirListing{Directories: []string{}}
	for _, d := range dirs {
		out.Directories = append(out.Directories, d.Name)
	}
	out.Count = len(out.Directories)
	return out, nil
}

// FileListing is the result of listing plans or summaries.
type FileListing struct {
	Files    []string `json:"files"`
	Count    int      `json:"count"`
	PhaseDir *string  `json:"phase_dir"`
	Error    string   `json:"error,omitempty"`
}

// Files lists plan or summary files across all phases, or within one
// phase when only is non-nil.
func Files(s *store.Store, kind string, only *phase.Number) (FileListing, error) {
	out := FileListing{Files: []string{}}
	if kind != KindPlans && kind != KindSummaries {
		return out, planerr.Usage("unknown --type %q (valid: plans, summaries)", kind)
	}
	dirs, err := phase.ScanDirs(s.PhasesDir())
	if err != nil {
		return out, err
	}
	if only != nil {
		d, ok := phase.FindDir(dirs, *only)
		if !ok {
			out.Error = "Phase not found"
			return out, nil
		}
		slug := d.Slug
		out.PhaseDir = &slug
		dirs = []phase.Dir{d}
	}
	for _, d := range dirs {
		var files []string
		if kind == KindPlans {
			files, err = d.Plans()
		} else {
			files, err = d.Summaries()
		}
		if err != nil {
			return out, err
		}
		out.Files = append(out.Files, files...)
	}
	out.Count = len(out.Files)
	return out, nil
}
