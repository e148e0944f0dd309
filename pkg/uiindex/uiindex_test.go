package uiindex

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
)

const sampleHierarchy = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
    <node index="0" text="Login" resource-id="com.app:id/login_btn" class="android.widget.Button" bounds="[100,200][300,280]"/>
    <node index="1" text="Sign Up" resource-id="com.app:id/signup_btn" class="android.widget.Button" bounds="[100,300][300,380]"/>
    <node index="2" text="" resource-id="com.app:id/container" class="android.widget.LinearLayout" bounds="[0,400][1080,800]">
      <node index="0" text="Login" resource-id="com.app:id/login_btn" class="android.widget.TextView" bounds="[50,420][200,460]"/>
      <node index="1" text="Broken" resource-id="com.app:id/broken" class="android.widget.EditText" bounds="[50,470]"/>
    </node>
  </node>
</hierarchy>`

func mustBuild(t *testing.T) *Snapshot {
	t.Helper()
	nodes, err := FromXML(strings.NewReader(sampleHierarchy))
	if err != nil {
		t.Fatalf("FromXML failed: %v", err)
	}
	return Build(nodes, Options{
		Stage:      "login",
		SourceXML:  "window_dump.xml",
		CapturedAt: time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	})
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		input string
		want  Rect
		ok    bool
	}{
		{"[0,0][100,200]", Rect{0, 0, 100, 200}, true},
		{"[50,100][150,300]", Rect{50, 100, 150, 300}, true},
		{"[0,0]", Rect{}, false},
		{"[-1,0][10,10]", Rect{}, false},
		{"[0,0][10,10]junk", Rect{}, false},
		{"invalid", Rect{}, false},
		{"", Rect{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseBounds(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseBounds(%q) = %+v, %v; want %+v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRect_Center(t *testing.T) {
	if got := (Rect{100, 200, 300, 281}).Center(); got != (core.Point{X: 200, Y: 240}) {
		t.Errorf("Center() = %v, want (200,240)", got)
	}
}

func TestFromXML_PreOrder(t *testing.T) {
	nodes, err := FromXML(strings.NewReader(sampleHierarchy))
	if err != nil {
		t.Fatalf("FromXML failed: %v", err)
	}

	if len(nodes) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(nodes))
	}

	wantIDs := []string{
		"",
		"com.app:id/login_btn",
		"com.app:id/signup_btn",
		"com.app:id/container",
		"com.app:id/login_btn",
		"com.app:id/broken",
	}
	for i, want := range wantIDs {
		if nodes[i].ResourceID != want {
			t.Errorf("node %d resource-id = %q, want %q", i, nodes[i].ResourceID, want)
		}
	}

	if nodes[1].Class != "android.widget.Button" {
		t.Errorf("class = %q", nodes[1].Class)
	}
	if nodes[1].Center == nil || *nodes[1].Center != (core.Point{X: 200, Y: 240}) {
		t.Errorf("login center = %v, want (200,240)", nodes[1].Center)
	}
	if nodes[5].Bounds != nil || nodes[5].Center != nil {
		t.Errorf("malformed bounds should yield absent center, got %v", nodes[5].Center)
	}
}

func TestFromXML_ClassNameTags(t *testing.T) {
	xmlData := `<hierarchy><android.widget.FrameLayout bounds="[0,0][10,10]"><android.widget.Button text="OK" bounds="[2,2][4,4]"/></android.widget.FrameLayout></hierarchy>`

	nodes, err := FromXML(strings.NewReader(xmlData))
	if err != nil {
		t.Fatalf("FromXML failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[1].Class != "android.widget.Button" || nodes[1].Text != "OK" {
		t.Errorf("node = %+v", nodes[1])
	}
}

func TestFromXML_Invalid(t *testing.T) {
	for _, input := range []string{"not xml", "<hierarchy><node></hierarchy>"} {
		if _, err := FromXML(strings.NewReader(input)); err == nil {
			t.Errorf("FromXML(%q) expected error", input)
		}
	}
}

func TestBuild_Lookup(t *testing.T) {
	s := mustBuild(t)

	if got := s.Lookup.ByResourceID["com.app:id/login_btn"]; !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("by_resource_id[login_btn] = %v, want [1 4]", got)
	}
	if got := s.Lookup.ByText["Login"]; !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("by_text[Login] = %v, want [1 4]", got)
	}
	if _, ok := s.Lookup.ByResourceID[""]; ok {
		t.Error("empty resource-id must not be indexed")
	}
	if _, ok := s.Lookup.ByText[""]; ok {
		t.Error("empty text must not be indexed")
	}
	if s.CapturedAt != "2026-01-02T03:04:05.006Z" {
		t.Errorf("CapturedAt = %q", s.CapturedAt)
	}
	if s.Stage == nil || *s.Stage != "login" {
		t.Errorf("Stage = %v, want login", s.Stage)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui-dump.json")

	if err := mustBuild(t).Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !reflect.DeepEqual(first.Lookup, second.Lookup) {
		t.Error("lookup differs between loads")
	}
	if !reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Error("nodes differ between loads")
	}

	rebuilt := mustBuild(t)
	if !reflect.DeepEqual(rebuilt.Lookup, first.Lookup) {
		t.Errorf("rebuilt lookup %v != loaded %v", rebuilt.Lookup, first.Lookup)
	}
	if !reflect.DeepEqual(rebuilt.Nodes, first.Nodes) {
		t.Error("rebuilt nodes differ from saved nodes")
	}
}

func TestSave_NullsForAbsentBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "ui.json")

	s := Build([]Node{NewNode("a", "", "View", "bad")}, Options{})
	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"x1": null`, `"x": null`, `"stage": null`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved JSON missing %s:\n%s", want, data)
		}
	}
}

func TestResolve_TieBreakPreOrderFirst(t *testing.T) {
	s := mustBuild(t)

	for i := 0; i < 5; i++ {
		p, err := s.Resolve("com.app:id/login_btn", "")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if p != (core.Point{X: 200, Y: 240}) {
			t.Fatalf("call %d: Resolve = %v, want (200,240)", i, p)
		}
	}
}

func TestResolve_TieBreakIgnoresStoredOrder(t *testing.T) {
	s := mustBuild(t)
	s.Lookup.ByResourceID["com.app:id/login_btn"] = []int{4, 1}

	p, err := s.Resolve("com.app:id/login_btn", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p != (core.Point{X: 200, Y: 240}) {
		t.Errorf("Resolve = %v, want smallest-index node (200,240)", p)
	}
}

func TestResolve_Priority(t *testing.T) {
	s := mustBuild(t)

	tests := []struct {
		name       string
		resourceID string
		text       string
		want       core.Point
	}{
		{"id wins over text", "com.app:id/signup_btn", "Login", core.Point{X: 200, Y: 340}},
		{"text when id empty", "", "Sign Up", core.Point{X: 200, Y: 340}},
		{"text when id unmatched", "com.app:id/missing", "Sign Up", core.Point{X: 200, Y: 340}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.resourceID, tt.text)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	s := mustBuild(t)

	tests := []struct {
		name       string
		resourceID string
		text       string
	}{
		{"missing id", "missing", ""},
		{"missing both", "missing", "nothing"},
		{"no keys", "", ""},
		{"no center", "com.app:id/broken", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.Resolve(tt.resourceID, tt.text)
			if !errors.Is(err, core.ErrUnresolvedElement) {
				t.Fatalf("expected ErrUnresolvedElement, got %v", err)
			}
			if p != (core.Point{}) {
				t.Errorf("failed resolve returned %v", p)
			}
		})
	}
}

func TestParse_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{nodes`},
		{"missing nodes", `{"lookup": {"by_resource_id": {}, "by_text": {}}}`},
		{"missing lookup", `{"nodes": []}`},
		{"nodes not array", `{"nodes": {}, "lookup": {}}`},
		{"index out of range", `{"nodes": [], "lookup": {"by_resource_id": {"a": [0]}, "by_text": {}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, core.ErrInvalidUISnapshot) {
				t.Errorf("expected ErrInvalidUISnapshot, got %v", err)
			}
		})
	}
}

func TestParse_HandWrittenSnapshot(t *testing.T) {
	data := `{
  "captured_at": "2026-01-01T00:00:00.000Z",
  "stage": null,
  "source_xml": "/tmp/window_dump.xml",
  "nodes": [
    {"resource_id": "ok", "text": "", "class": "Button",
     "bounds": {"x1": 0, "y1": 0, "x2": 10, "y2": 20}, "center": {"x": 5, "y": 10}},
    {"resource_id": "half", "text": "", "class": "Button",
     "bounds": {"x1": null, "y1": null, "x2": null, "y2": null}, "center": {"x": 3, "y": null}}
  ],
  "lookup": {"by_resource_id": {"ok": [0], "half": [1]}}
}`

	s, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Stage != nil {
		t.Errorf("Stage = %v, want nil", *s.Stage)
	}
	if p, err := s.Resolve("ok", ""); err != nil || p != (core.Point{X: 5, Y: 10}) {
		t.Errorf("Resolve(ok) = %v, %v", p, err)
	}
	if _, err := s.Resolve("half", ""); !errors.Is(err, core.ErrUnresolvedElement) {
		t.Errorf("partially null center should not resolve, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, core.ErrInvalidUISnapshot) {
		t.Errorf("expected ErrInvalidUISnapshot, got %v", err)
	}
}

func TestResolveSource(t *testing.T) {
	dir := t.TempDir()

	// Missing path and empty directory resolve to nothing
	if got, err := ResolveSource(filepath.Join(dir, "absent")); err != nil || got != "" {
		t.Errorf("absent path = %q, %v", got, err)
	}
	if got, err := ResolveSource(dir); err != nil || got != "" {
		t.Errorf("empty dir = %q, %v", got, err)
	}
	if got, err := ResolveSource(""); err != nil || got != "" {
		t.Errorf("empty path = %q, %v", got, err)
	}

	older := filepath.Join(dir, "b-older.json")
	newer := filepath.Join(dir, "a-newer.json")
	other := filepath.Join(dir, "z-notes.txt")
	for _, p := range []string{older, newer, other} {
		if err := os.WriteFile(p, []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveSource(dir)
	if err != nil {
		t.Fatalf("ResolveSource failed: %v", err)
	}
	if got != newer {
		t.Errorf("ResolveSource(dir) = %q, want %q", got, newer)
	}

	if got, _ := ResolveSource(older); got != older {
		t.Errorf("ResolveSource(file) = %q, want %q", got, older)
	}
}
