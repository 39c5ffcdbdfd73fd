// Package descriptor parses JVM field and method type descriptors.
package descriptor

import (
	"fmt"
	"strings"
)

// Kind distinguishes the three shapes a field type can take.
type Kind int

const (
	KindBase Kind = iota
	KindObject
	KindArray
)

// FieldType is the JVM type algebra: a primitive base type, an object type
// L<name>;, or an array of another field type.
type FieldType struct {
	Kind      Kind
	Base      byte   // one of B C D F I J S Z V when Kind == KindBase
	ClassName string // internal form ("java/lang/String") when Kind == KindObject
	Elem      *FieldType
}

// MethodDescriptor is the parsed form of "(<params>)<return>".
type MethodDescriptor struct {
	Params []FieldType
	Ret    FieldType
}

func Base(b byte) FieldType { return FieldType{Kind: KindBase, Base: b} }
func Object(n string) FieldType {
	return FieldType{Kind: KindObject, ClassName: n}
}
func Array(elem FieldType) FieldType {
	return FieldType{Kind: KindArray, Elem: &elem}
}

// Equal reports deep equality of two field types.
func (t FieldType) Equal(o FieldType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindBase:
		return t.Base == o.Base
	case KindObject:
		return t.ClassName == o.ClassName
	default:
		return t.Elem.Equal(*o.Elem)
	}
}

// String renders the descriptor back into its wire form.
func (t FieldType) String() string {
	switch t.Kind {
	case KindBase:
		return string(t.Base)
	case KindObject:
		return "L" + t.ClassName + ";"
	default:
		return "[" + t.Elem.String()
	}
}

// Equal reports equality of parameter lists and return type.
func (d MethodDescriptor) Equal(o MethodDescriptor) bool {
	if len(d.Params) != len(o.Params) || !d.Ret.Equal(o.Ret) {
		return false
	}
	for i := range d.Params {
		if !d.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// String renders "(<params>)<return>".
func (d MethodDescriptor) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range d.Params {
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	sb.WriteString(d.Ret.String())
	return sb.String()
}

// parseFieldType consumes one field type from s. V is only legal when
// asReturn is set.
func parseFieldType(s string, asReturn bool) (FieldType, string, error) {
	if len(s) == 0 {
		return FieldType{}, s, fmt.Errorf("unexpected end of descriptor")
	}
	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return Base(s[0]), s[1:], nil
	case 'V':
		if !asReturn {
			return FieldType{}, s, fmt.Errorf("V is only valid as a return type")
		}
		return Base('V'), s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 || end == 1 {
			return FieldType{}, s, fmt.Errorf("unterminated object type in %q", s)
		}
		return Object(s[1:end]), s[end+1:], nil
	case '[':
		elem, rest, err := parseFieldType(s[1:], false)
		if err != nil {
			return FieldType{}, s, fmt.Errorf("array component: %w", err)
		}
		return Array(elem), rest, nil
	default:
		return FieldType{}, s, fmt.Errorf("invalid type descriptor char %q", s[0])
	}
}

// ParseField parses a full field descriptor. The whole string must be
// consumed.
func ParseField(s string) (FieldType, error) {
	t, rest, err := parseFieldType(s, false)
	if err != nil {
		return FieldType{}, err
	}
	if rest != "" {
		return FieldType{}, fmt.Errorf("trailing characters %q in field descriptor %q", rest, s)
	}
	return t, nil
}

// ParseMethod parses "(<params>)<return>". The whole string must be consumed.
func ParseMethod(s string) (MethodDescriptor, error) {
	if len(s) == 0 || s[0] != '(' {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q does not start with '('", s)
	}
	rest := s[1:]
	var params []FieldType
	for len(rest) > 0 && rest[0] != ')' {
		t, r, err := parseFieldType(rest, false)
		if err != nil {
			return MethodDescriptor{}, fmt.Errorf("parameter %d of %q: %w", len(params), s, err)
		}
		params = append(params, t)
		rest = r
	}
	if len(rest) == 0 {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q missing ')'", s)
	}
	rest = rest[1:]
	ret, r, err := parseFieldType(rest, true)
	if err != nil {
		return MethodDescriptor{}, fmt.Errorf("return type of %q: %w", s, err)
	}
	if r != "" {
		return MethodDescriptor{}, fmt.Errorf("trailing characters %q in method descriptor %q", r, s)
	}
	return MethodDescriptor{Params: params, Ret: ret}, nil
}
