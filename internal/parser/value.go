package parser

import (
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind identifies which field of a Value is meaningful.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

// Value is a frontmatter field value, classified when the YAML is decoded.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
	// Raw is the scalar text as written in the document; empty for
	// sequences and mappings.
	Raw string
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s, Raw: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Other returns a value of a type the date parser does not understand.
func Other(raw string) Value { return Value{Kind: KindOther, Raw: raw} }

// Truthy reports whether the value counts as present. Empty strings, zero,
// NaN, null and false are absent.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindString:
		return v.Str != ""
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindTime:
		return true
	default:
		return v.Raw != "false"
	}
}

// Frontmatter is a decoded metadata block keyed by field name.
type Frontmatter map[string]Value

// Get returns the value for key and whether the key was present.
func (f Frontmatter) Get(key string) (Value, bool) {
	v, ok := f[key]
	return v, ok
}

// valueFromNode classifies a YAML node by its resolved tag.
func valueFromNode(n *yaml.Node) Value {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return Other("")
	}
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!str":
		return String(n.Value)
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Other(n.Value)
		}
		v := Number(f)
		v.Raw = n.Value
		return v
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return String(n.Value)
		}
		v := Time(t)
		v.Raw = n.Value
		return v
	default:
		return Other(n.Value)
	}
}
