// Package document provides an ordered document model for generated
// collections. Field order is part of the output contract, so documents are
// slices of key/value pairs rather than maps.
package document

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDField is the primary identifier key of every document.
const IDField = "_id"

// Ref is an identifier token rendered in the typed-reference envelope
// {"$oid": "<hex>"}.
type Ref string

// MarshalJSON implements json.Marshaler.
func (r Ref) MarshalJSON() ([]byte, error) {
	return []byte(`{"$oid":` + quote(string(r)) + `}`), nil
}

// UnmarshalJSON accepts both the envelope and a bare string.
func (r *Ref) UnmarshalJSON(b []byte) error {
	var env struct {
		OID *string `json:"$oid"`
	}
	if err := json.Unmarshal(b, &env); err == nil && env.OID != nil {
		*r = Ref(*env.OID)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid reference %s", string(b))
	}
	*r = Ref(s)
	return nil
}

func (r Ref) String() string {
	return string(r)
}

// NewRef returns a fresh 24-hex reference: a 4-byte timestamp followed by
// 8 random bytes, the same layout as a database object id.
func NewRef() Ref {
	var b [12]byte
	ts := uint32(time.Now().Unix())
	b[0], b[1], b[2], b[3] = byte(ts>>24), byte(ts>>16), byte(ts>>8), byte(ts)
	u := uuid.New()
	copy(b[4:], u[:8])
	return Ref(hex.EncodeToString(b[:]))
}

// Field is a single key/value pair.
type Field struct {
	Key   string
	Value any
}

// Document is an ordered set of fields. Values are nil, string, bool,
// int64, float64, Ref, Document or []any.
type Document []Field

// New builds a document from alternating key/value arguments.
func New(pairs ...any) Document {
	d := make(Document, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, Field{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}

// Get returns the top-level value for key.
func (d Document) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Lookup resolves a dotted path such as "reviewer.nationality".
func (d Document) Lookup(path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	v, ok := d.Get(head)
	if !ok || !nested {
		return v, ok
	}
	sub, isDoc := v.(Document)
	if !isDoc {
		return nil, false
	}
	return sub.Lookup(rest)
}

// Set replaces the value for key or appends a new field. The receiver is
// not modified.
func (d Document) Set(key string, value any) Document {
	out := make(Document, len(d), len(d)+1)
	copy(out, d)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// ID returns the document identifier, if it is a reference.
func (d Document) ID() (Ref, bool) {
	v, ok := d.Get(IDField)
	if !ok {
		return "", false
	}
	switch id := v.(type) {
	case Ref:
		return id, true
	case string:
		return Ref(id), true
	}
	return "", false
}

// Keys returns the field names in order.
func (d Document) Keys() []string {
	keys := make([]string, len(d))
	for i, f := range d {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON writes the fields in order. HTML characters are not escaped.
func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(quote(f.Key))
		buf.WriteByte(':')
		b, err := marshalValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Envelopes become Ref,
// nested objects become Document, integral numbers become int64.
func (d *Document) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return err
	}
	doc, ok := v.(Document)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*d = doc
	return nil
}

// Encode renders v as JSON without HTML escaping and without a trailing
// newline. A non-empty indent produces indented output.
//
// json.Marshal re-escapes the output of MarshalJSON, so documents that must
// keep "<", ">" and "&" literal go through Encode.
func Encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeValue decodes a single JSON value with the same rules as
// Document.UnmarshalJSON.
func DecodeValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return decodeValue(dec)
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func quote(s string) string {
	b, _ := marshalValue(s)
	return string(b)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (any, error) {
	doc := Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc = append(doc, Field{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if len(doc) == 1 && doc[0].Key == "$oid" {
		if s, ok := doc[0].Value.(string); ok {
			return Ref(s), nil
		}
	}
	return doc, nil
}
