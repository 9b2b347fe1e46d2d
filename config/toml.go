// Package config implements niv's configuration file format: a
// reduced-TOML dialect (section headers, `#` comments, flat key=value
// pairs, one-dimensional arrays) with dotted-key flattening of nested
// tables and an unknown-key passthrough bag so round-tripping never
// drops a key niv doesn't recognise.
//
// No ecosystem dependency covers this exact dialect: BurntSushi/toml and
// pelletier/go-toml parse full TOML (nested tables as real maps, not
// dotted-flattened strings, and no "preserve what I don't understand"
// bag), neither of which matches this grammar. See DESIGN.md for the
// full justification.
package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ValueKind names the scalar/array kinds a config value may hold.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
	KindBool
	KindArray
)

// Value is a single parsed TOML-dialect value, tagged with its Kind.
// Only one of the typed fields is meaningful for a given Kind.
type Value struct {
	Kind    ValueKind
	Str     string
	Int     int64
	Float64 float64
	Bool    bool
	Array   []Value
}

func stringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func intValue(i int64) Value     { return Value{Kind: KindInteger, Int: i} }
func floatValue(f float64) Value { return Value{Kind: KindFloat, Float64: f} }
func boolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func arrayValue(v []Value) Value { return Value{Kind: KindArray, Array: v} }

// AsString returns the value as a string, or an error if it isn't one.
func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", errors.New("config: expected string value")
	}
	return v.Str, nil
}

// AsInt returns the value as an integer, or an error if it isn't one.
func (v Value) AsInt() (int64, error) {
	if v.Kind != KindInteger {
		return 0, errors.New("config: expected integer value")
	}
	return v.Int, nil
}

// AsFloat returns the value as a float, or an error if it isn't one.
func (v Value) AsFloat() (float64, error) {
	if v.Kind != KindFloat {
		return 0, errors.New("config: expected float value")
	}
	return v.Float64, nil
}

// AsBool returns the value as a bool, or an error if it isn't one.
func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, errors.New("config: expected boolean value")
	}
	return v.Bool, nil
}

// AsArray returns the value as a slice of Values, or an error if it isn't one.
func (v Value) AsArray() ([]Value, error) {
	if v.Kind != KindArray {
		return nil, errors.New("config: expected array value")
	}
	return v.Array, nil
}

// AsStringSlice returns an array value's elements as strings, erroring
// if any element isn't itself a string.
func (v Value) AsStringSlice() ([]string, error) {
	arr, err := v.AsArray()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, err := item.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Document is the parsed form of a config file: a flat map from dotted
// key (section.key, or bare key for top-level entries) to Value.
// Section order and key order are not retained; this dialect has no
// ordering requirements.
type Document map[string]Value

// Parse parses content in the reduced-TOML dialect. Nested tables don't
// exist in this dialect: a `[section]` header simply prefixes every key
// that follows it with `section.` until the next header.
func Parse(content string) (Document, error) {
	result := make(Document)
	section := ""

	for lineNum, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		key, rawValue, ok := splitKeyValue(line)
		if !ok {
			return nil, errors.Errorf("config: invalid line %d: %q", lineNum+1, rawLine)
		}
		value, err := parseValue(rawValue)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum+1)
		}

		fullKey := key
		if section != "" {
			fullKey = section + "." + key
		}
		result[fullKey] = value
	}
	return result, nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func parseValue(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"':
		return stringValue(raw[1 : len(raw)-1]), nil

	case raw == "true":
		return boolValue(true), nil
	case raw == "false":
		return boolValue(false), nil

	case strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]"):
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return arrayValue(nil), nil
		}
		items := splitTopLevelCommas(inner)
		vals := make([]Value, 0, len(items))
		for _, item := range items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			v, err := parseValue(item)
			if err != nil {
				return Value{}, err
			}
			vals = append(vals, v)
		}
		return arrayValue(vals), nil

	default:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return intValue(i), nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return floatValue(f), nil
		}
		if raw != "" && !strings.Contains(raw, "\"") {
			return stringValue(raw), nil
		}
		return Value{}, errors.Errorf("config: unsupported value %q", raw)
	}
}

// splitTopLevelCommas splits an array's inner content on commas. The
// dialect has no nested arrays or quoted commas to worry about, so a
// plain split suffices; this helper exists so that changes to the
// splitting rule (e.g. quote-awareness) have one place to land.
func splitTopLevelCommas(s string) []string {
	return strings.Split(s, ",")
}

// Render serialises a Document back to the reduced-TOML dialect, one
// section at a time: keys with no dot are written at the top before any
// section header, then the sections named in sectionOrder in that order,
// then every other dot-prefix as its own section in sorted order. This is
// used to round-trip
// unknown keys verbatim, since Document retains them exactly as parsed.
func Render(doc Document, sectionOrder []string) string {
	var b strings.Builder
	bySection := make(map[string]map[string]Value)
	var topLevel []string

	for key, v := range doc {
		if dot := strings.IndexByte(key, '.'); dot >= 0 {
			section, sub := key[:dot], key[dot+1:]
			if bySection[section] == nil {
				bySection[section] = make(map[string]Value)
			}
			bySection[section][sub] = v
		} else {
			topLevel = append(topLevel, key)
		}
	}

	sort.Strings(topLevel)
	for _, key := range topLevel {
		writeKeyValue(&b, key, doc[key])
	}

	seen := make(map[string]bool)
	for _, section := range sectionOrder {
		keys, ok := bySection[section]
		if !ok {
			continue
		}
		seen[section] = true
		writeSection(&b, section, keys)
	}
	var rest []string
	for section := range bySection {
		if !seen[section] {
			rest = append(rest, section)
		}
	}
	sort.Strings(rest)
	for _, section := range rest {
		writeSection(&b, section, bySection[section])
	}
	return b.String()
}

func writeSection(b *strings.Builder, section string, keys map[string]Value) {
	b.WriteString("\n[")
	b.WriteString(section)
	b.WriteString("]\n")
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		writeKeyValue(b, k, keys[k])
	}
}

func writeKeyValue(b *strings.Builder, key string, v Value) {
	b.WriteString(key)
	b.WriteString(" = ")
	b.WriteString(renderValue(v))
	b.WriteString("\n")
}

func renderValue(v Value) string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return `""`
	}
}
