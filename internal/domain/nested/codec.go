package nested

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tailscale/hujson"
)

// EmptyComment is the textual form a missing comment defaults to.
const EmptyComment = "{}"

// Parse decodes JSON-like comment text into a Mapping. Besides standard JSON
// it accepts comments and trailing commas. Blank text is treated as "{}".
// Text must be valid UTF-8.
// Text that does not parse, or whose root is not an object, fails with
// ErrMalformedComment.
func Parse(text string) (Mapping, error) {
	if strings.TrimSpace(text) == "" {
		return Mapping{}, nil
	}
	if !utf8.ValidString(text) {
		return Mapping{}, fmt.Errorf("%w: invalid UTF-8", ErrMalformedComment)
	}

	std, err := hujson.Standardize([]byte(text))
	if err != nil {
		return Mapping{}, fmt.Errorf("%w: %v", ErrMalformedComment, err)
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Mapping{}, fmt.Errorf("%w: %v", ErrMalformedComment, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Mapping{}, fmt.Errorf("%w: trailing data after object", ErrMalformedComment)
	}

	m, ok := v.AsMapping()
	if !ok {
		return Mapping{}, fmt.Errorf("%w: root is %s, want object", ErrMalformedComment, v.Kind())
	}
	return m, nil
}

// Encode renders m as compact JSON. Parse(Encode(m)) is equal to m.
func Encode(m Mapping) string {
	return string(appendMapping(nil, m))
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, want string", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Map(Mapping{entries: entries}), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{kind: KindList, list: elems}, nil
}

func appendValue(buf []byte, v Value) []byte {
	switch v.kind {
	case KindBool:
		if v.b {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case KindNumber:
		return append(buf, v.text...)
	case KindString:
		return appendString(buf, v.text)
	case KindList:
		buf = append(buf, '[')
		for i, e := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendValue(buf, e)
		}
		return append(buf, ']')
	case KindMapping:
		return appendMapping(buf, v.m)
	default:
		return append(buf, "null"...)
	}
}

func appendMapping(buf []byte, m Mapping) []byte {
	buf = append(buf, '{')
	for i, e := range m.entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, e.Key)
		buf = append(buf, ':')
		buf = appendValue(buf, e.Value)
	}
	return append(buf, '}')
}

func appendString(buf []byte, s string) []byte {
	// json.Marshal of a string cannot fail
	q, _ := json.Marshal(s)
	return append(buf, q...)
}
