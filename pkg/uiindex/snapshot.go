// Package uiindex builds, stores and queries indexed UI hierarchy snapshots.
//
// A snapshot flattens the on-screen hierarchy in pre-order and keeps two
// lookup tables (resource-id and text) whose index lists preserve document
// order. A snapshot is read-only once built.
package uiindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
)

// CapturedAtLayout is the ISO-8601 layout used for captured_at.
const CapturedAtLayout = "2006-01-02T15:04:05.000Z"

// Lookup maps keys to the ordered indices of the nodes carrying them.
type Lookup struct {
	ByResourceID map[string][]int `json:"by_resource_id"`
	ByText       map[string][]int `json:"by_text"`
}

// Snapshot is an indexed UI hierarchy capture.
type Snapshot struct {
	CapturedAt string  `json:"captured_at"`
	Stage      *string `json:"stage"`
	SourceXML  string  `json:"source_xml"`
	Nodes      []Node  `json:"nodes"`
	Lookup     Lookup  `json:"lookup"`
}

// Options tags a snapshot built from a fresh capture.
type Options struct {
	Stage      string    // optional stage identifier (login, checkout, ...)
	SourceXML  string    // path of the XML the nodes came from
	CapturedAt time.Time // zero means now
}

// Build indexes nodes into a snapshot. Empty keys are not indexed.
func Build(nodes []Node, opts Options) *Snapshot {
	capturedAt := opts.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	s := &Snapshot{
		CapturedAt: capturedAt.UTC().Format(CapturedAtLayout),
		SourceXML:  opts.SourceXML,
		Nodes:      nodes,
		Lookup:     buildLookup(nodes),
	}
	if opts.Stage != "" {
		stage := opts.Stage
		s.Stage = &stage
	}
	return s
}

func buildLookup(nodes []Node) Lookup {
	l := Lookup{
		ByResourceID: make(map[string][]int),
		ByText:       make(map[string][]int),
	}
	for i, n := range nodes {
		if n.ResourceID != "" {
			l.ByResourceID[n.ResourceID] = append(l.ByResourceID[n.ResourceID], i)
		}
		if n.Text != "" {
			l.ByText[n.Text] = append(l.ByText[n.Text], i)
		}
	}
	return l
}

// Save writes the snapshot as indented JSON, creating the parent directory.
func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads a snapshot file. Invalid JSON, a missing nodes/lookup field, or
// a lookup index outside the node list fail with ErrInvalidUISnapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided snapshot file
	if err != nil {
		return nil, core.ErrInvalidUISnapshot.WithCause(err).
			WithDetails(map[string]interface{}{"path": path})
	}
	return Parse(data)
}

// Parse decodes a snapshot from JSON bytes.
func Parse(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, core.ErrInvalidUISnapshot.WithMessage("UI snapshot is not valid JSON")
	}
	nodes := gjson.GetBytes(data, "nodes")
	lookup := gjson.GetBytes(data, "lookup")
	if !nodes.IsArray() || !lookup.IsObject() {
		return nil, core.ErrInvalidUISnapshot.WithMessage("UI snapshot missing required fields 'nodes' or 'lookup'")
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, core.ErrInvalidUISnapshot.WithCause(err)
	}
	if s.Lookup.ByResourceID == nil {
		s.Lookup.ByResourceID = map[string][]int{}
	}
	if s.Lookup.ByText == nil {
		s.Lookup.ByText = map[string][]int{}
	}
	if err := s.checkIndices(); err != nil {
		return nil, err
	}

	logger.LogDebug("uiindex").Int("nodes", len(s.Nodes)).
		Int("resourceIds", len(s.Lookup.ByResourceID)).
		Int("texts", len(s.Lookup.ByText)).
		Msg("UI snapshot loaded")
	return &s, nil
}

func (s *Snapshot) checkIndices() error {
	for name, table := range map[string]map[string][]int{
		"by_resource_id": s.Lookup.ByResourceID,
		"by_text":        s.Lookup.ByText,
	} {
		for key, indices := range table {
			for _, idx := range indices {
				if idx < 0 || idx >= len(s.Nodes) {
					return core.ErrInvalidUISnapshot.
						WithMessage(fmt.Sprintf("UI snapshot lookup %s[%q] references node %d of %d", name, key, idx, len(s.Nodes))).
						WithDetails(map[string]interface{}{"table": name, "key": key, "index": idx})
				}
			}
		}
	}
	return nil
}

// ResolveSource picks the snapshot file for a --ui-source value: a file is
// used as-is, a directory yields its most recently modified *.json file.
// It returns "" when nothing usable exists.
func ResolveSource(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return "", err
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		candidates = append(candidates, candidate{path: m, modTime: fi.ModTime()})
	}
	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.After(candidates[j].modTime)
		}
		return candidates[i].path > candidates[j].path
	})
	return candidates[0].path, nil
}
