package mdformat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gerunddev/notematrix/internal/matrix"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		block string
		body  string
		ok    bool
	}{
		{"none", "## TODO\n", "", "## TODO\n", false},
		{"simple", "---\na: 1\n---\nbody\n", "a: 1", "body\n", true},
		{"empty block", "---\n---\nbody", "", "body", true},
		{"unterminated", "---\na: 1\n", "", "---\na: 1\n", false},
		{"closing at eof", "---\na: 1\n---", "a: 1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, body, ok := splitFrontMatter(tt.text)
			if block != tt.block || body != tt.body || ok != tt.ok {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)", block, body, ok, tt.block, tt.body, tt.ok)
			}
		})
	}
}

func TestParseFrontMatterValues(t *testing.T) {
	block := strings.Join([]string{
		"title: Weekly review",
		"count: 3",
		"ratio: 0.5",
		"draft: true",
		"nothing: null",
		`quoted: "with: colon"`,
		`list: ["a", "b"]`,
		"empty:",
		"tags:",
		"  - work",
		"  - home",
	}, "\n")

	fm := parseFrontMatter(block)

	want := matrix.FrontMatter{
		{Key: "title", Value: "Weekly review"},
		{Key: "count", Value: json.Number("3")},
		{Key: "ratio", Value: json.Number("0.5")},
		{Key: "draft", Value: true},
		{Key: "nothing", Value: nil},
		{Key: "quoted", Value: "with: colon"},
		{Key: "list", Value: []any{"a", "b"}},
		{Key: "empty", Value: ""},
		{Key: "tags", Value: []any{"work", "home"}},
	}
	if diff := cmp.Diff(want, fm); diff != "" {
		t.Errorf("front matter mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeValueReadsBack(t *testing.T) {
	values := []any{
		"plain",
		"true",
		"42",
		" padded ",
		"line\nbreak",
		`say "hi"`,
		json.Number("7"),
		true,
		nil,
		[]any{"x", json.Number("1")},
		map[string]any{"k": "v"},
		"",
	}
	for _, v := range values {
		enc := encodeValue(v)
		got := decodeScalar(enc)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("encodeValue(%#v) = %q read back differently (-want +got):\n%s", v, enc, diff)
		}
	}
}

func TestWriteFrontMatterMarkerFirst(t *testing.T) {
	fm := matrix.FrontMatter{
		{Key: "title", Value: "x"},
		{Key: matrix.MarkerKey, Value: "something-else"},
		{Key: "empty", Value: ""},
	}
	var b strings.Builder
	writeFrontMatter(&b, fm)

	want := "---\nnotematrix-plugin: basic\ntitle: x\nempty:\n---\n"
	if b.String() != want {
		t.Errorf("got\n%s\nwant\n%s", b.String(), want)
	}
}

func TestParseStripsMarker(t *testing.T) {
	doc := Parse("---\nnotematrix-plugin: basic\nowner: me\n---\n## TODO\n")

	if !doc.HasFrontMatter || !doc.HasMarker {
		t.Fatalf("HasFrontMatter=%v HasMarker=%v, want both true", doc.HasFrontMatter, doc.HasMarker)
	}
	if doc.FrontMatter.HasMarker() {
		t.Error("marker should be removed from parsed front matter")
	}
	if v, _ := doc.FrontMatter.Get("owner"); v != "me" {
		t.Errorf("owner = %v, want me", v)
	}
}

func TestParseHandlesCRLFAndBOM(t *testing.T) {
	doc := Parse("\ufeff---\r\ntitle: x\r\n---\r\n## Q1\r\n\r\n- item\r\n")
	if !doc.HasFrontMatter {
		t.Fatal("front matter not detected")
	}
	u := Extract(doc, matrix.DefaultSettings())
	if got := rawIDs(u.Items(matrix.SectionQ1)); got != "item" {
		t.Errorf("q1 = %q, want item", got)
	}
}
