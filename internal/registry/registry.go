// Package registry tracks station membership across runs. Stations that
// vanish from the feed or pop up for the first time are quarantined on a
// blacklist so a flapping feed cannot feed half-observed stations into the
// optimization.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	whitelistFile = "withlist.csv"
	blacklistFile = "blacklist.csv"
)

// Registry persists the whitelist and blacklist under a processing
// directory.
type Registry struct {
	dir string
}

// New returns a registry rooted at dir. The directory is created on demand.
func New(dir string) *Registry {
	return &Registry{dir: dir}
}

// Update reconciles the persisted lists against the stations seen in the
// current feed and returns the stations cleared for processing. Stations
// missing since the last run and stations never seen before both join the
// blacklist; the whitelist shrinks to stations still present.
func (r *Registry) Update(current []string) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}

	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}

	white, ok, err := r.load(whitelistFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		// First run: every station seen now is trusted.
		white = make(map[string]bool, len(seen))
		for id := range seen {
			white[id] = true
		}
	}
	black, _, err := r.load(blacklistFile)
	if err != nil {
		return nil, err
	}
	if black == nil {
		black = map[string]bool{}
	}

	for id := range white {
		if !seen[id] {
			black[id] = true
			delete(white, id)
		}
	}
	for id := range seen {
		if !white[id] {
			black[id] = true
		}
	}

	if err := r.save(whitelistFile, white); err != nil {
		return nil, err
	}
	if err := r.save(blacklistFile, black); err != nil {
		return nil, err
	}

	var out []string
	for _, id := range current {
		if !black[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *Registry) load(name string) (map[string]bool, bool, error) {
	f, err := os.Open(filepath.Join(r.dir, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	head, err := cr.Read()
	if err == io.EOF {
		return map[string]bool{}, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s header: %w", name, err)
	}
	if len(head) != 1 || head[0] != "station" {
		return nil, false, fmt.Errorf("%s: unexpected header %v", name, head)
	}
	set := map[string]bool{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", name, err)
		}
		set[rec[0]] = true
	}
	return set, true, nil
}

func (r *Registry) save(name string, set map[string]bool) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	f, err := os.Create(filepath.Join(r.dir, name))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"station"}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := cw.Write([]string{id}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
