package hwtype

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseType parses the textual form of a type (spec.md §6's `type`
// grammar) from the front of s, returning the type and the unconsumed
// remainder. It is a small hand-rolled recursive-descent parser.
func ParseType(s string) (*Type, string, error) {
	s = strings.TrimSpace(s)
	t, rest, err := parseAtomType(s)
	if err != nil {
		return nil, s, err
	}
	for {
		rest = strings.TrimSpace(rest)
		switch {
		case strings.HasPrefix(rest, "*"):
			t = Pointer(t)
			rest = rest[1:]
		case strings.HasPrefix(rest, "$"):
			t = Signal(t)
			rest = rest[1:]
		default:
			return t, rest, nil
		}
	}
}

func parseAtomType(s string) (*Type, string, error) {
	switch {
	case strings.HasPrefix(s, "void"):
		return Void(), s[len("void"):], nil
	case strings.HasPrefix(s, "time"):
		return Time(), s[len("time"):], nil
	case strings.HasPrefix(s, "i"):
		return parsePrefixedInt(s, "i", Int)
	case strings.HasPrefix(s, "n"):
		return parsePrefixedInt(s, "n", Enum)
	case strings.HasPrefix(s, "["):
		return parseArrayType(s)
	case strings.HasPrefix(s, "{"):
		return parseStructType(s)
	case strings.HasPrefix(s, "("):
		return parseFuncOrEntityType(s)
	}
	return nil, s, fmt.Errorf("hwtype: cannot parse type from %q", s)
}

func parsePrefixedInt(s, prefix string, make func(int) *Type) (*Type, string, error) {
	rest := s[len(prefix):]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return nil, s, fmt.Errorf("hwtype: expected digits after %q in %q", prefix, s)
	}
	width, err := strconv.Atoi(rest[:n])
	if err != nil {
		return nil, s, err
	}
	return make(width), rest[n:], nil
}

func parseArrayType(s string) (*Type, string, error) {
	rest := s[1:]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return nil, s, fmt.Errorf("hwtype: expected array length in %q", s)
	}
	length, _ := strconv.Atoi(rest[:n])
	rest = strings.TrimSpace(rest[n:])
	if !strings.HasPrefix(rest, "x") {
		return nil, s, fmt.Errorf("hwtype: expected 'x' in array type %q", s)
	}
	rest = strings.TrimSpace(rest[1:])
	elem, rest, err := ParseType(rest)
	if err != nil {
		return nil, s, err
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "]") {
		return nil, s, fmt.Errorf("hwtype: expected ']' in array type %q", s)
	}
	return Array(length, elem), rest[1:], nil
}

func parseStructType(s string) (*Type, string, error) {
	fields, rest, err := parseTypeList(s[1:], "}")
	if err != nil {
		return nil, s, err
	}
	return Struct(fields), rest, nil
}

func parseFuncOrEntityType(s string) (*Type, string, error) {
	args, rest, err := parseTypeList(s[1:], ")")
	if err != nil {
		return nil, s, err
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, ";") {
		outs, rest2, err := parseTypeList(rest[1:], ")")
		if err != nil {
			return nil, s, err
		}
		return Entity(args, outs), rest2, nil
	}
	ret, rest2, err := ParseType(rest)
	if err != nil {
		return nil, s, err
	}
	return Func(args, ret), rest2, nil
}

// parseTypeList parses a comma-separated list of types up to (and
// consuming) the closer rune, used for `{...}`, `(args)`, `(ins; ...)`.
func parseTypeList(s string, closer string) ([]*Type, string, error) {
	s = strings.TrimSpace(s)
	var types []*Type
	if strings.HasPrefix(s, closer) {
		return types, s[len(closer):], nil
	}
	if strings.HasPrefix(s, ";") {
		return types, s, nil
	}
	for {
		s = strings.TrimSpace(s)
		t, rest, err := ParseType(s)
		if err != nil {
			return nil, s, err
		}
		types = append(types, t)
		s = strings.TrimSpace(rest)
		if strings.HasPrefix(s, ",") {
			s = s[1:]
			continue
		}
		if strings.HasPrefix(s, closer) {
			return types, s[len(closer):], nil
		}
		if strings.HasPrefix(s, ";") {
			return types, s, nil
		}
		return nil, s, fmt.Errorf("hwtype: expected ',' or %q in %q", closer, s)
	}
}
