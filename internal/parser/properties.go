package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultmetrics/internal/apperr"
)

// Kind discriminates the shapes a decoded front matter value can take.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

// Properties is a decoded front matter block keyed by top-level field name.
type Properties map[string]Value

// Value is one node of decoded front matter. Its accessors are total: asking
// for the wrong shape reports ok=false instead of failing.
type Value struct {
	kind    Kind
	tag     string
	scalar  string
	seq     []Value
	mapping map[string]Value
}

// Decode parses a raw YAML front matter block. An empty block yields an empty,
// non-nil Properties. Anything that is not a string-keyed mapping is an
// apperr.ErrYAMLDecode.
//
// The block is walked node by node, so merge keys are not applied: "<<" is
// kept as an ordinary field whose value is the referenced mapping.
func Decode(raw string) (Properties, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrYAMLDecode, err)
	}
	if doc.Kind == 0 {
		return Properties{}, nil
	}
	root, err := fromNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrYAMLDecode, err)
	}
	switch root.kind {
	case KindNull:
		return Properties{}, nil
	case KindMapping:
		return Properties(root.mapping), nil
	}
	return nil, fmt.Errorf("%w: front matter is not a mapping", apperr.ErrYAMLDecode)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	val, err := fromNode(n)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func fromNode(n *yaml.Node) (Value, error) {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{kind: KindNull}, nil
		}
		return fromNode(n.Content[0])

	case yaml.ScalarNode:
		tag := n.ShortTag()
		if tag == "!!null" {
			return Value{kind: KindNull, tag: tag}, nil
		}
		return Value{kind: KindScalar, tag: tag, scalar: n.Value}, nil

	case yaml.SequenceNode:
		seq := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, item)
		}
		return Value{kind: KindSequence, tag: n.ShortTag(), seq: seq}, nil

	case yaml.MappingNode:
		m := make(map[string]Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			for key.Kind == yaml.AliasNode && key.Alias != nil {
				key = key.Alias
			}
			if key.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping key is not a scalar", key.Line)
			}
			if _, dup := m[key.Value]; dup {
				return Value{}, fmt.Errorf("line %d: mapping key %q already defined", key.Line, key.Value)
			}
			item, err := fromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m[key.Value] = item
		}
		return Value{kind: KindMapping, tag: n.ShortTag(), mapping: m}, nil
	}

	return Value{}, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the text of a string scalar.
func (v Value) AsString() (string, bool) {
	if v.kind != KindScalar || v.tag != "!!str" {
		return "", false
	}
	return v.scalar, true
}

// AsSequence returns the items of a sequence.
func (v Value) AsSequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// Get looks up key in a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	item, ok := v.mapping[key]
	return item, ok
}

// Len is the number of items in a sequence or mapping, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return len(v.mapping)
	}
	return 0
}

// Sequence returns the items of the top-level field key when it is a sequence.
func (p Properties) Sequence(key string) []Value {
	if p == nil {
		return nil
	}
	seq, _ := p[key].AsSequence()
	return seq
}
