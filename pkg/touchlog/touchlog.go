// Package touchlog reads and writes replay logs.
//
// A log is a JSON array or a CSV file (selected by extension) holding either
// touch samples (timestamp, x, y, action) or element actions (timestamp,
// resource_id and/or text). A single log never mixes the two.
package touchlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/touch"
)

// Kind is the detected content of a log.
type Kind int

// Kind values.
const (
	KindEmpty Kind = iota
	KindTouch
	KindElement
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTouch:
		return "touch"
	case KindElement:
		return "element"
	default:
		return "empty"
	}
}

// ElementAction is one element-based step: tap the element carrying
// ResourceID (preferred) or Text.
type ElementAction struct {
	ResourceID string  `json:"resource_id,omitempty"`
	Text       string  `json:"text,omitempty"`
	Timestamp  float64 `json:"timestamp"`
}

// Log is a loaded replay log. Only the slice matching Kind is populated.
type Log struct {
	Path     string
	Format   Format
	Kind     Kind
	Samples  []touch.Sample
	Elements []ElementAction
}

// record is one log entry with its non-null fields as text.
type record map[string]string

func (r record) has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r record) resourceID() string {
	if v := r["resource_id"]; v != "" {
		return v
	}
	return r["resource-id"]
}

// Load reads and classifies the log at path.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided log file
	if err != nil {
		return nil, core.ErrMalformedLog.
			WithMessage(fmt.Sprintf("cannot read log %s", path)).
			WithCause(err)
	}

	format, _ := FormatFor(path, "")
	l, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	l.Path = path

	logger.LogInfo("touchlog").
		Str("path", path).
		Str("format", string(format)).
		Str("kind", l.Kind.String()).
		Int("samples", len(l.Samples)).
		Int("elements", len(l.Elements)).
		Msg("log loaded")
	return l, nil
}

// Decode parses log content in the given format.
func Decode(data []byte, format Format) (*Log, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = csvRecords(data)
	default:
		records, err = jsonRecords(data)
	}
	if err != nil {
		return nil, err
	}

	kind, err := classify(records)
	if err != nil {
		return nil, err
	}

	l := &Log{Format: format, Kind: kind}
	switch kind {
	case KindTouch:
		l.Samples = make([]touch.Sample, 0, len(records))
		for i, r := range records {
			s, err := sampleFrom(r)
			if err != nil {
				return nil, malformed(i, err)
			}
			l.Samples = append(l.Samples, s)
		}
	case KindElement:
		l.Elements = make([]ElementAction, 0, len(records))
		for i, r := range records {
			a, err := elementFrom(r, i)
			if err != nil {
				return nil, malformed(i, err)
			}
			l.Elements = append(l.Elements, a)
		}
	}
	return l, nil
}

func classify(records []record) (Kind, error) {
	var hasTouch, hasElement bool
	for i, r := range records {
		isTouch := r.has("x") && r.has("y")
		isElement := r.resourceID() != "" || r["text"] != ""
		if !isTouch && !isElement {
			return KindEmpty, malformed(i, errors.New("record has neither x/y nor resource_id/text"))
		}
		hasTouch = hasTouch || isTouch
		hasElement = hasElement || isElement
	}

	switch {
	case hasTouch && hasElement:
		return KindEmpty, core.ErrMixedLogKinds
	case hasTouch:
		return KindTouch, nil
	case hasElement:
		return KindElement, nil
	default:
		return KindEmpty, nil
	}
}

func sampleFrom(r record) (touch.Sample, error) {
	ts, err := floatField(r, "timestamp")
	if err != nil {
		return touch.Sample{}, err
	}
	x, err := intField(r, "x")
	if err != nil {
		return touch.Sample{}, err
	}
	y, err := intField(r, "y")
	if err != nil {
		return touch.Sample{}, err
	}
	action, err := touch.ParseAction(r["action"])
	if err != nil {
		return touch.Sample{}, err
	}
	return touch.Sample{Timestamp: ts, X: x, Y: y, Action: action}, nil
}

func elementFrom(r record, index int) (ElementAction, error) {
	a := ElementAction{
		ResourceID: r.resourceID(),
		Text:       r["text"],
		Timestamp:  float64(index),
	}
	if r.has("timestamp") {
		ts, err := floatField(r, "timestamp")
		if err != nil {
			return ElementAction{}, err
		}
		a.Timestamp = ts
	}
	return a, nil
}

func floatField(r record, key string) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("field %q is not a number: %q", key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("field %q must be finite: %q", key, v)
	}
	return f, nil
}

// intField accepts integral and fractional numbers; fractions truncate.
func intField(r record, key string) (int, error) {
	f, err := floatField(r, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func malformed(index int, cause error) error {
	return core.ErrMalformedLog.
		WithMessage(fmt.Sprintf("malformed log record %d: %v", index, cause)).
		WithDetails(map[string]interface{}{"record": index})
}

func jsonRecords(data []byte) ([]record, error) {
	if !gjson.ValidBytes(data) {
		return nil, core.ErrMalformedLog.WithMessage("log is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, core.ErrMalformedLog.WithMessage("log must be a JSON array of records")
	}

	var (
		records []record
		bad     = -1
	)
	root.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			bad = len(records)
			return false
		}
		r := record{}
		entry.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Null {
				r[key.String()] = value.String()
			}
			return true
		})
		records = append(records, r)
		return true
	})
	if bad >= 0 {
		return nil, malformed(bad, errors.New("record is not an object"))
	}
	return records, nil
}

// csvRecords reads a header row followed by records. Empty cells are
// treated as absent fields.
func csvRecords(data []byte) ([]record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, core.ErrMalformedLog.WithMessage("invalid CSV header").WithCause(err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(len(records), err)
		}
		r := record{}
		for i, v := range row {
			if v = strings.TrimSpace(v); v != "" {
				r[header[i]] = v
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// Format is the on-disk log encoding.
type Format string

// Format values.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFor returns the explicit format when given, otherwise the one implied
// by the path extension (.csv is CSV, anything else JSON).
func FormatFor(path, explicit string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "":
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			return FormatCSV, nil
		}
		return FormatJSON, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown log format %q (expected json or csv)", explicit))
	}
}
