package fronius

import (
	"fmt"
	"sort"
	"time"
)

// Payload is one decoded device response.
type Payload struct {
	// Tree is the decoded JSON object. Numbers are float64, null is nil.
	Tree map[string]any

	// ReceivedAt is when the response body finished arriving.
	ReceivedAt time.Time

	// URL is the request URL, kept for log context.
	URL string
}

// node is a value inside a payload together with its dotted path.
type node struct {
	path  string
	value any
}

func (p *Payload) root() node {
	return node{value: p.Tree}
}

// get walks keys from n, failing on the first absent key or non-object step.
func (n node) get(keys ...string) (node, error) {
	cur := n
	for _, key := range keys {
		m, ok := cur.value.(map[string]any)
		if !ok {
			return node{}, &FieldTypeError{Field: cur.name(), Want: "object", Got: jsonType(cur.value)}
		}
		v, ok := m[key]
		if !ok {
			return node{}, &MissingFieldError{Field: cur.join(key)}
		}
		cur = node{path: cur.join(key), value: v}
	}
	return cur, nil
}

// keys returns the sorted member names of an object node.
func (n node) keys() ([]string, error) {
	m, ok := n.value.(map[string]any)
	if !ok {
		return nil, &FieldTypeError{Field: n.name(), Want: "object", Got: jsonType(n.value)}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// number reads a nullable JSON number at keys.
func (n node) number(keys ...string) (*float64, error) {
	v, err := n.get(keys...)
	if err != nil {
		return nil, err
	}
	switch x := v.value.(type) {
	case nil:
		return nil, nil
	case float64:
		return &x, nil
	default:
		return nil, &FieldTypeError{Field: v.name(), Want: "number", Got: jsonType(x)}
	}
}

// text reads a nullable JSON string at keys. null reads as "".
func (n node) text(keys ...string) (string, error) {
	v, err := n.get(keys...)
	if err != nil {
		return "", err
	}
	switch x := v.value.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	default:
		return "", &FieldTypeError{Field: v.name(), Want: "string", Got: jsonType(x)}
	}
}

func (n node) join(key string) string {
	if n.path == "" {
		return key
	}
	return n.path + "." + key
}

func (n node) name() string {
	if n.path == "" {
		return "(root)"
	}
	return n.path
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
