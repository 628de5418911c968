package mdformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/notematrix/internal/matrix"
)

var fieldLine = regexp.MustCompile(`^([^\s:#-][^:]*):(.*)$`)

// splitFrontMatter separates a leading --- block from the rest of the text.
func splitFrontMatter(text string) (block string, body string, ok bool) {
	if !strings.HasPrefix(text, "---\n") && text != "---" {
		return "", text, false
	}
	rest := strings.TrimPrefix(text, "---")
	rest = strings.TrimPrefix(rest, "\n")

	if strings.HasPrefix(rest, "---\n") || rest == "---" {
		return "", strings.TrimPrefix(strings.TrimPrefix(rest, "---"), "\n"), true
	}
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n---") {
			return rest[:len(rest)-len("\n---")], "", true
		}
		return "", text, false
	}
	return rest[:end], rest[end+len("\n---\n"):], true
}

// parseFrontMatter reads `key: value` lines. Values are tried as JSON and
// kept as raw strings otherwise. A key with an empty value followed by
// indented lines is decoded as a YAML block.
func parseFrontMatter(block string) matrix.FrontMatter {
	var fm matrix.FrontMatter
	var key, raw string
	var cont []string
	open := false

	flush := func() {
		if !open {
			return
		}
		var value any
		if raw == "" && len(cont) > 0 {
			value = decodeYAMLBlock(key, cont)
		} else {
			value = decodeScalar(raw)
		}
		fm = append(fm, matrix.Field{Key: key, Value: value})
		open = false
		cont = nil
	}

	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			flush()
			key = strings.TrimSpace(m[1])
			raw = strings.TrimSpace(m[2])
			open = true
			continue
		}
		if open && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "- ")) {
			cont = append(cont, line)
		}
	}
	flush()
	return fm
}

// decodeScalar returns the JSON value of raw, or raw itself.
func decodeScalar(raw string) any {
	if raw == "" {
		return ""
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); err != io.EOF {
		return raw
	}
	return v
}

// decodeYAMLBlock decodes `key:` plus its indented lines. The result is
// normalized through JSON so a value reads back identically once it has been
// written out in JSON form.
func decodeYAMLBlock(key string, lines []string) any {
	src := key + ":\n" + strings.Join(lines, "\n")
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	v, ok := doc[key]
	if !ok {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return decodeScalar(string(data))
}

// encodeValue renders a value the way decodeScalar will read it back.
func encodeValue(v any) string {
	switch val := v.(type) {
	case string:
		if !strings.ContainsAny(val, "\n\r") && val == strings.TrimSpace(val) {
			if back, ok := decodeScalar(val).(string); ok && back == val {
				return val
			}
		}
		return quote(val)
	case json.Number:
		return val.String()
	case nil:
		return "null"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return quote(fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// writeFrontMatter emits the block with the marker key first.
func writeFrontMatter(b *strings.Builder, fm matrix.FrontMatter) {
	b.WriteString("---\n")
	b.WriteString(matrix.MarkerKey + ": " + encodeValue(matrix.MarkerValue) + "\n")
	for _, f := range fm.Without(matrix.MarkerKey) {
		v := encodeValue(f.Value)
		if v == "" {
			b.WriteString(f.Key + ":\n")
			continue
		}
		b.WriteString(f.Key + ": " + v + "\n")
	}
	b.WriteString("---\n")
}
