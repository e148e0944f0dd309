package touch

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// eventPattern matches one getevent -lt line. The device path is optional
// because getevent omits it when a single input device is given.
var eventPattern = regexp.MustCompile(
	`^\[\s*(\d+\.\d+)\]\s+(?:(\S+):\s+)?(\S+)\s+(\S+)\s+([0-9a-fA-F]+)\b`,
)

// Event codes the parser reacts to.
const (
	evABS        = "EV_ABS"
	evSYN        = "EV_SYN"
	absPositionX = "ABS_MT_POSITION_X"
	absPositionY = "ABS_MT_POSITION_Y"
	synReport    = "SYN_REPORT"
)

const (
	initialBufSize = 64 * 1024
	maxLineLength  = 1024 * 1024
)

// RawEvent is one decoded getevent line.
type RawEvent struct {
	Timestamp float64
	Device    string // empty when the line carries no device path
	Type      string
	Code      string
	Value     int
}

// ParseLine decodes a getevent line. Lines that do not match the grammar
// return ok=false.
func ParseLine(line string) (RawEvent, bool) {
	m := eventPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return RawEvent{}, false
	}

	ts, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return RawEvent{}, false
	}
	// Parse as unsigned 32-bit then reinterpret, so ffffffff reads as -1.
	u, err := strconv.ParseUint(m[5], 16, 32)
	if err != nil {
		return RawEvent{}, false
	}

	return RawEvent{
		Timestamp: ts,
		Device:    m[2],
		Type:      m[3],
		Code:      m[4],
		Value:     int(int32(u)),
	}, true
}

// Parser is the two-state (inactive/active) machine that converts raw
// events into down/move/up samples. The zero value is ready to use.
type Parser struct {
	// DeviceFilter restricts parsing to one input device path
	// (e.g. /dev/input/event2). Empty accepts every device.
	DeviceFilter string

	x, y    int
	hasX    bool
	hasY    bool
	pending bool
	active  bool
}

// NewParser creates a parser restricted to device (empty for all devices).
func NewParser(device string) *Parser {
	return &Parser{DeviceFilter: device}
}

// Active reports whether a touch is currently in progress.
func (p *Parser) Active() bool {
	return p.active
}

// Feed consumes one line and returns the sample it completes, if any.
// Malformed and irrelevant lines are dropped.
func (p *Parser) Feed(line string) (Sample, bool) {
	ev, ok := ParseLine(line)
	if !ok {
		return Sample{}, false
	}
	return p.FeedEvent(ev)
}

// FeedEvent consumes one decoded event.
func (p *Parser) FeedEvent(ev RawEvent) (Sample, bool) {
	if p.DeviceFilter != "" && ev.Device != p.DeviceFilter {
		return Sample{}, false
	}

	switch {
	case ev.Type == evABS && ev.Code == absPositionX:
		p.x, p.hasX = ev.Value, true
		p.pending = true
		return Sample{}, false

	case ev.Type == evABS && ev.Code == absPositionY:
		p.y, p.hasY = ev.Value, true
		p.pending = true
		return Sample{}, false

	case ev.Type == evSYN && ev.Code == synReport:
		return p.sync(ev.Timestamp)
	}

	return Sample{}, false
}

// sync handles a SYN_REPORT marker.
func (p *Parser) sync(ts float64) (Sample, bool) {
	defer func() { p.pending = false }()

	if p.pending && p.hasX && p.hasY {
		action := ActionMove
		if !p.active {
			action = ActionDown
			p.active = true
		}
		return Sample{Timestamp: ts, X: p.x, Y: p.y, Action: action}, true
	}

	if p.active {
		p.active = false
		return Sample{Timestamp: ts, X: p.x, Y: p.y, Action: ActionUp}, true
	}

	return Sample{}, false
}

// Parse reads a whole getevent capture and returns its samples in stream
// order. Only read errors are returned.
func Parse(r io.Reader, device string) ([]Sample, error) {
	p := NewParser(device)
	samples := make([]Sample, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufSize), maxLineLength)
	for scanner.Scan() {
		if s, ok := p.Feed(scanner.Text()); ok {
			samples = append(samples, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return samples, err
	}
	return samples, nil
}
