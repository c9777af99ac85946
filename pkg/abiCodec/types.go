package abiCodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/parser"
)

// TypeKind enumerates the ABI types the codec implements.
type TypeKind int

const (
	UintKind TypeKind = iota
	IntKind
	AddressKind
	BoolKind
	FixedBytesKind
	BytesKind
	StringKind
	SliceKind
	ArrayKind
	TupleKind
)

const (
	maxTypeNesting      = 32
	maxFixedArrayLength = 1 << 16
	// static types larger than this could never fit in a calldata buffer
	maxStaticHeadSize = 1 << 24
)

// Type is a parsed ABI type signature.
type Type struct {
	Kind TypeKind
	// Size is the bit width of integers, the byte width of fixed bytes and
	// the length of fixed arrays.
	Size int
	// Elem is set for SliceKind and ArrayKind.
	Elem *Type
	// Components and ComponentNames are set for TupleKind.
	Components     []*Type
	ComponentNames []string

	signature string
}

// Argument is a named top-level parameter.
type Argument struct {
	Name string
	Type *Type
}

// String returns the canonical signature, e.g. "(address,uint256,bytes)[]".
func (t *Type) String() string {
	return t.signature
}

// IsDynamic reports whether the type is encoded in the tail region.
func (t *Type) IsDynamic() bool {
	switch t.Kind {
	case BytesKind, StringKind, SliceKind:
		return true
	case ArrayKind:
		return t.Elem.IsDynamic()
	case TupleKind:
		for _, c := range t.Components {
			if c.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// headSize is the number of bytes the type occupies in its parent's head.
func (t *Type) headSize() int {
	if t.IsDynamic() {
		return WordSize
	}
	switch t.Kind {
	case ArrayKind:
		return t.Size * t.Elem.headSize()
	case TupleKind:
		size := 0
		for _, c := range t.Components {
			size += c.headSize()
		}
		return size
	}
	return WordSize
}

// MustParseType is ParseType for package-level declarations.
func MustParseType(s string) *Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseType parses a single ABI type signature. Tuple components may carry
// names, e.g. "(address to,uint256 value,bytes data)[]". The keyword form
// "tuple(...)" is accepted too.
func ParseType(s string) (*Type, error) {
	p := &typeParser{src: s}
	t, err := p.parseType(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, unsupported("unexpected %q after type in %q", p.src[p.pos:], s)
	}
	return t, nil
}

// ParseArguments parses a comma separated parameter list such as
// "address _to, uint256 _value". An empty list yields no arguments.
func ParseArguments(list string) ([]Argument, error) {
	if strings.TrimSpace(list) == "" {
		return []Argument{}, nil
	}
	t, err := ParseType("(" + list + ")")
	if err != nil {
		return nil, err
	}
	args := make([]Argument, len(t.Components))
	for i, c := range t.Components {
		args[i] = Argument{Name: t.ComponentNames[i], Type: c}
	}
	return args, nil
}

// NewTupleType assembles a tuple type from already parsed components.
func NewTupleType(components []*Type, names []string) (*Type, error) {
	if len(components) == 0 {
		return nil, unsupported("empty tuple")
	}
	if len(names) != len(components) {
		return nil, unsupported("tuple has %d components but %d names", len(components), len(names))
	}
	sigs := make([]string, len(components))
	for i, c := range components {
		sigs[i] = c.String()
	}
	t := &Type{
		Kind:           TupleKind,
		Components:     components,
		ComponentNames: names,
		signature:      "(" + strings.Join(sigs, ",") + ")",
	}
	if !t.IsDynamic() {
		size := 0
		for _, c := range components {
			size += c.headSize()
			if size > maxStaticHeadSize {
				return nil, unsupported("static tuple %s is larger than %d bytes", t.signature, maxStaticHeadSize)
			}
		}
	}
	return t, nil
}

// NewSliceType returns elem[].
func NewSliceType(elem *Type) *Type {
	return &Type{Kind: SliceKind, Elem: elem, signature: elem.signature + "[]"}
}

// NewArrayType returns elem[n].
func NewArrayType(elem *Type, n int) (*Type, error) {
	if n <= 0 || n > maxFixedArrayLength {
		return nil, unsupported("invalid fixed array length %d", n)
	}
	signature := fmt.Sprintf("%s[%d]", elem.signature, n)
	// element head sizes are already bounded, so the product cannot overflow
	if !elem.IsDynamic() && elem.headSize() > maxStaticHeadSize/n {
		return nil, unsupported("static array %s is larger than %d bytes", signature, maxStaticHeadSize)
	}
	return &Type{Kind: ArrayKind, Size: n, Elem: elem, signature: signature}, nil
}

func unsupported(format string, args ...interface{}) error {
	return parser.NewDecodeError(parser.ErrorKind_UnsupportedType, format, args...)
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) done() bool {
	return p.pos >= len(p.src)
}

func (p *typeParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *typeParser) readIdent() string {
	start := p.pos
	for !p.done() && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseType(depth int) (*Type, error) {
	if depth > maxTypeNesting {
		return nil, unsupported("type nesting deeper than %d in %q", maxTypeNesting, p.src)
	}
	p.skipSpace()

	var t *Type
	var err error
	if p.peek() == '(' {
		t, err = p.parseTuple(depth)
	} else {
		ident := p.readIdent()
		if ident == "tuple" && p.peek() == '(' {
			t, err = p.parseTuple(depth)
		} else {
			t, err = parseElementaryType(ident)
		}
	}
	if err != nil {
		return nil, err
	}

	for p.peek() == '[' {
		p.pos++
		digits := p.readIdent()
		if p.peek() != ']' {
			return nil, unsupported("unterminated array suffix in %q", p.src)
		}
		p.pos++
		if digits == "" {
			t = NewSliceType(t)
			continue
		}
		n, convErr := strconv.Atoi(digits)
		if convErr != nil {
			return nil, unsupported("invalid fixed array length %q in %q", digits, p.src)
		}
		if t, err = NewArrayType(t, n); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// data location keywords that may appear in human written signatures
var ignoredModifiers = map[string]bool{
	"memory":   true,
	"calldata": true,
	"storage":  true,
	"indexed":  true,
	"payable":  true,
}

func (p *typeParser) parseTuple(depth int) (*Type, error) {
	// consume '('
	p.pos++
	components := make([]*Type, 0)
	names := make([]string, 0)

	p.skipSpace()
	if p.peek() == ')' {
		return nil, unsupported("empty tuple in %q", p.src)
	}

	for {
		c, err := p.parseType(depth + 1)
		if err != nil {
			return nil, err
		}
		name := ""
		for {
			p.skipSpace()
			if !isIdentChar(p.peek()) {
				break
			}
			word := p.readIdent()
			if ignoredModifiers[word] {
				continue
			}
			name = word
		}
		components = append(components, c)
		names = append(names, name)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return NewTupleType(components, names)
		default:
			return nil, unsupported("malformed tuple in %q", p.src)
		}
	}
}

func parseElementaryType(ident string) (*Type, error) {
	switch {
	case ident == "":
		return nil, unsupported("missing type name")
	case ident == "address":
		return &Type{Kind: AddressKind, Size: 20, signature: "address"}, nil
	case ident == "bool":
		return &Type{Kind: BoolKind, signature: "bool"}, nil
	case ident == "string":
		return &Type{Kind: StringKind, signature: "string"}, nil
	case ident == "bytes":
		return &Type{Kind: BytesKind, signature: "bytes"}, nil
	case ident == "byte":
		return &Type{Kind: FixedBytesKind, Size: 1, signature: "bytes1"}, nil
	case strings.HasPrefix(ident, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(ident, "bytes"))
		if err != nil || n < 1 || n > 32 {
			return nil, unsupported("invalid fixed bytes type %q", ident)
		}
		return &Type{Kind: FixedBytesKind, Size: n, signature: ident}, nil
	case strings.HasPrefix(ident, "uint"):
		return parseIntegerType(UintKind, "uint", strings.TrimPrefix(ident, "uint"))
	case strings.HasPrefix(ident, "int"):
		return parseIntegerType(IntKind, "int", strings.TrimPrefix(ident, "int"))
	}
	return nil, unsupported("type %q is not supported", ident)
}

func parseIntegerType(kind TypeKind, prefix string, bits string) (*Type, error) {
	if bits == "" {
		return &Type{Kind: kind, Size: 256, signature: prefix + "256"}, nil
	}
	n, err := strconv.Atoi(bits)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return nil, unsupported("invalid integer type %q", prefix+bits)
	}
	return &Type{Kind: kind, Size: n, signature: prefix + bits}, nil
}
