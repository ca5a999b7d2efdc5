package forms

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is the stored form data union. A Scalar holds every single-valued
// field, a List holds checkbox selections and repeater items, a Doc holds
// the document root, group sub-documents, and repeater items.
type Value interface {
	isValue()
}

type Scalar string

type List []Value

type Doc map[string]Value

func (Scalar) isValue() {}
func (List) isValue()   {}
func (Doc) isValue()    {}

// Path addresses a field's value inside a Doc. Parent is the enclosing
// container key ("" for root fields) and Index is the repeater item index
// (-1 outside repeaters).
type Path struct {
	Parent string
	Index  int
	Key    string
}

func RootPath(key string) Path {
	return Path{Index: -1, Key: key}
}

func GroupPath(parent, key string) Path {
	return Path{Parent: parent, Index: -1, Key: key}
}

func ItemPath(parent string, index int, key string) Path {
	return Path{Parent: parent, Index: index, Key: key}
}

// Get returns the value at the path, or nil if any step is missing or has
// the wrong shape.
func (d Doc) Get(p Path) Value {
	if p.Parent == "" {
		return d[p.Key]
	}

	if p.Index < 0 {
		sub, ok := d[p.Parent].(Doc)
		if !ok {
			return nil
		}
		return sub[p.Key]
	}

	items, ok := d[p.Parent].(List)
	if !ok || p.Index >= len(items) {
		return nil
	}
	item, ok := items[p.Index].(Doc)
	if !ok {
		return nil
	}
	return item[p.Key]
}

// Set writes the value at the path, creating missing containers along the
// way. Repeater lists are extended with empty items up to the index.
func (d Doc) Set(p Path, v Value) {
	if p.Parent == "" {
		d[p.Key] = v
		return
	}

	if p.Index < 0 {
		sub, ok := d[p.Parent].(Doc)
		if !ok {
			sub = Doc{}
			d[p.Parent] = sub
		}
		sub[p.Key] = v
		return
	}

	items, _ := d[p.Parent].(List)
	for len(items) <= p.Index {
		items = append(items, Doc{})
	}
	item, ok := items[p.Index].(Doc)
	if !ok {
		item = Doc{}
		items[p.Index] = item
	}
	item[p.Key] = v
	d[p.Parent] = items
}

func AsString(v Value) string {
	if s, ok := v.(Scalar); ok {
		return string(s)
	}
	return ""
}

func AsList(v Value) List {
	if l, ok := v.(List); ok {
		return l
	}
	return nil
}

func AsDoc(v Value) Doc {
	if d, ok := v.(Doc); ok {
		return d
	}
	return nil
}

// Strings flattens a List of scalars, skipping non-scalar entries.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, ok := v.(Scalar); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// Contains reports whether the list holds the given scalar.
func (l List) Contains(s string) bool {
	for _, v := range l {
		if sc, ok := v.(Scalar); ok && string(sc) == s {
			return true
		}
	}
	return false
}

// Toggle adds the scalar to the list if absent and removes it if present.
func (l List) Toggle(s string) List {
	if !l.Contains(s) {
		return append(l, Scalar(s))
	}
	out := make(List, 0, len(l))
	for _, v := range l {
		if sc, ok := v.(Scalar); ok && string(sc) == s {
			continue
		}
		out = append(out, v)
	}
	return out
}

func EncodeDoc(d Doc) (string, error) {
	data, err := json.Marshal(toJson(d))
	if err != nil {
		return "", fmt.Errorf("error encoding form content: %w", err)
	}
	return string(data), nil
}

func DecodeDoc(content string) (Doc, error) {
	if content == "" {
		return Doc{}, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("error decoding form content: %w", err)
	}
	doc, ok := fromJson(raw).(Doc)
	if !ok {
		return nil, fmt.Errorf("form content is not an object")
	}
	return doc, nil
}

func toJson(v Value) interface{} {
	switch val := v.(type) {
	case Scalar:
		return string(val)
	case List:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = toJson(item)
		}
		return out
	case Doc:
		out := make(map[string]interface{}, len(val))
		for key, item := range val {
			out[key] = toJson(item)
		}
		return out
	default:
		return nil
	}
}

func fromJson(raw interface{}) Value {
	switch val := raw.(type) {
	case string:
		return Scalar(val)
	case bool:
		return Scalar(strconv.FormatBool(val))
	case float64:
		return Scalar(strconv.FormatFloat(val, 'f', -1, 64))
	case []interface{}:
		out := make(List, len(val))
		for i, item := range val {
			out[i] = fromJson(item)
		}
		return out
	case map[string]interface{}:
		out := make(Doc, len(val))
		for key, item := range val {
			out[key] = fromJson(item)
		}
		return out
	default:
		return nil
	}
}
