// Package tags loads the checkbox labels offered next to the entry form.
//
// A tag file holds one tag per line. Each line is trimmed of surrounding
// whitespace and then loses its first character and its last two, which
// strips the list decoration the files are written with.
package tags

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"habitjournal/internal/logging"
)

// Group names one of the three tag lists.
type Group string

const (
	GroupEmotions      Group = "emotion"
	GroupCoping        Group = "coping"
	GroupAfterEmotions Group = "emotion_after"
)

// Groups lists every group in sidebar order.
var Groups = []Group{GroupEmotions, GroupCoping, GroupAfterEmotions}

// Title is the sidebar heading for g.
func (g Group) Title() string {
	switch g {
	case GroupEmotions:
		return "Emotion Tags (Optional)"
	case GroupCoping:
		return "Coping Mechanism Tags (Optional)"
	case GroupAfterEmotions:
		return "Emotion After Tags (Optional)"
	}
	return string(g)
}

// Label converts one raw line into a checkbox label.
func Label(line string) string {
	r := []rune(strings.TrimSpace(line))
	if len(r) < 3 {
		return ""
	}
	return string(r[1 : len(r)-2])
}

// Parse reads one label per line, in file order, without deduplication.
// Lines whose label comes out empty are skipped.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := Label(sc.Text()); l != "" {
			out = append(out, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile parses the tag file at path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return labels, nil
}

// Catalog holds the current labels of every group.
type Catalog struct {
	mu     sync.RWMutex
	paths  map[Group]string
	labels map[Group][]string
}

// NewCatalog creates a catalog for the given files. Call Reload to read them.
func NewCatalog(paths map[Group]string) *Catalog {
	c := &Catalog{
		paths:  make(map[Group]string, len(paths)),
		labels: make(map[Group][]string),
	}
	for g, p := range paths {
		c.paths[g] = p
	}
	return c
}

// Paths returns the file backing each group.
func (c *Catalog) Paths() map[Group]string {
	out := make(map[Group]string, len(c.paths))
	for g, p := range c.paths {
		out[g] = p
	}
	return out
}

// Reload re-reads every file. A missing file leaves its group empty; other
// read errors keep the previous labels and are returned joined.
func (c *Catalog) Reload() error {
	timer := logging.StartTimer(logging.CategoryTags, "tag reload")
	defer timer.Stop()

	var errs []error
	for _, g := range Groups {
		path, ok := c.paths[g]
		if !ok {
			continue
		}
		labels, err := LoadFile(path)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist):
			logging.TagsWarn("tag file %s not found, %s group is empty", path, g)
			labels = nil
		default:
			errs = append(errs, err)
			continue
		}

		c.mu.Lock()
		c.labels[g] = labels
		c.mu.Unlock()
		logging.Tags("loaded %d %s tags from %s", len(labels), g, path)
	}
	return errors.Join(errs...)
}

// Labels returns a copy of the labels in g.
func (c *Catalog) Labels(g Group) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.labels[g]...)
}
