package lifecycle

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jorge-barreto/pstate/internal/phase"
	"github.com/jorge-barreto/pstate/internal/planerr"
	"github.com/jorge-barreto/pstate/internal/roadmap"
)

// Added describes a phase created by Add or Insert.
type Added struct {
	Number    phase.Number `json:"-"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Directory string       `json:"directory"`
}

// Add appends a whole phase numbered one past the highest whole phase in
// the roadmap or on disk.
func (e *Engine) Add(description string) (Added, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Added{}, planerr.Usage("phase description required")
	}
	slug := phase.Slug(description)
	if slug == "" {
		return Added{}, planerr.Usage("phase description %q has no usable characters", description)
	}

	var out Added
	err := e.locked(func(d *docs) error {
		highest := 0
		level := 0
		for _, s := range d.Roadmap.Sections() {
			highest = max(highest, s.Number.Major)
			level = s.Level
		}
		for _, dir := range d.Dirs {
			highest = max(highest, dir.Number.Major)
		}
		n := phase.Whole(highest + 1)
		depends := "Nothing"
		if highest > 0 {
			depends = "Phase " + phase.Whole(highest).String()
		}

		out = Added{Number: n, Name: description, Slug: slug, Directory: phase.DirName(n, slug)}
		if err := os.MkdirAll(e.phaseDir(out.Directory), 0755); err != nil {
			return fmt.Errorf("creating phase directory: %w", err)
		}
		d.Roadmap.Append(roadmap.NewSection{
			Number:    n,
			Token:     n.String(),
			Name:      description,
			Level:     level,
			Goal:      "[To be planned]",
			DependsOn: depends,
		})
		d.Roadmap.AddChecklistItem(n, n.String(), description, nil)
		adjustTotal(d.State, 1)
		_, _, _, err := e.save(d)
		return err
	})
	if err != nil {
		return Added{}, err
	}
	e.log().Info("phase added", "op", "phase.add", "phase", out.Number.String(), "directory", out.Directory)
	return out, nil
}

// Insert adds a decimal phase directly after base. base must have both a
// section in the roadmap and a directory under phases/. The new number is the next free decimal under
// base's whole number.
func (e *Engine) Insert(base phase.Number, description string) (Added, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Added{}, planerr.Usage("phase description required")
	}
	slug := phase.Slug(description)
	if slug == "" {
		return Added{}, planerr.Usage("phase description %q has no usable characters", description)
	}

	var out Added
	err := e.locked(func(d *docs) error {
		baseSec, ok := d.Roadmap.Find(base)
		if !ok {
			return planerr.NotFound("Phase %s in ROADMAP.md", base)
		}
		if _, ok := phase.FindDir(d.Dirs, base); !ok {
			return planerr.NotFound("Phase %s directory", base)
		}
		n := nextDecimal(d, base.Major)

		// after the base and any decimals already inserted after it
		after := baseSec
		for _, s := range d.Roadmap.Sections() {
			if s.Number.Major == base.Major && s.Number.Decimal && s.Number.Compare(after.Number) > 0 && s.Line > after.Line {
				after = s
			}
		}

		name := description + " (INSERTED)"
		out = Added{Number: n, Name: name, Slug: slug, Directory: phase.DirName(n, slug)}
		if err := os.MkdirAll(e.phaseDir(out.Directory), 0755); err != nil {
			return fmt.Errorf("creating phase directory: %w", err)
		}
		d.Roadmap.InsertAfter(after, roadmap.NewSection{
			Number:    n,
			Token:     n.Padded(),
			Name:      name,
			Level:     baseSec.Level,
			Goal:      "[Urgent work - to be planned]",
			DependsOn: "Phase " + baseSec.Token,
		})
		d.Roadmap.AddChecklistItem(n, n.Padded(), name, &base)
		adjustTotal(d.State, 1)
		_, _, _, err := e.save(d)
		return err
	})
	if err != nil {
		return Added{}, err
	}
	e.log().Info("phase inserted", "op", "phase.insert", "phase", out.Number.String(), "after", base.String())
	return out, nil
}

func nextDecimal(d *docs, major int) phase.Number {
	highest := 0
	for _, n := range decimalsUnder(d, major) {
		highest = max(highest, n.Minor)
	}
	return phase.Whole(major).WithMinor(highest + 1)
}

func decimalsUnder(d *docs, major int) []phase.Number {
	seen := map[phase.Number]bool{}
	var out []phase.Number
	add := func(n phase.Number) {
		if n.Decimal && n.Major == major && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, dir := range d.Dirs {
		add(dir.Number)
	}
	if d.Roadmap != nil {
		for _, s := range d.Roadmap.Sections() {
			add(s.Number)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// DecimalInfo answers "phase next-decimal".
type DecimalInfo struct {
	Found    bool     `json:"found"`
	Base     string   `json:"base_phase"`
	Next     string   `json:"next"`
	Existing []string `json:"existing"`
}

// NextDecimal reports the next free decimal under base without changing
// anything. Decimals are collected from the phases directory and, when
// present, the roadmap.
func (e *Engine) NextDecimal(base phase.Number) (DecimalInfo, error) {
	d := &docs{}
	var err error
	d.Dirs, err = phase.ScanDirs(e.Store.PhasesDir())
	if err != nil {
		return DecimalInfo{}, err
	}
	if data, err := os.ReadFile(e.Store.RoadmapPath()); err == nil {
		d.Roadmap = roadmap.Parse(string(data))
	}

	whole := phase.Whole(base.Major)
	info := DecimalInfo{Base: whole.Padded(), Existing: []string{}}
	_, info.Found = phase.FindDir(d.Dirs, whole)
	if !info.Found && d.Roadmap != nil {
		_, info.Found = d.Roadmap.Find(whole)
	}
	for _, n := range decimalsUnder(d, base.Major) {
		info.Existing = append(info.Existing, n.Padded())
	}
	info.Next = nextDecimal(d, base.Major).Padded()
	return info, nil
}
