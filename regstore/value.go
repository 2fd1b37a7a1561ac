package regstore

import (
	"bytes"
	"fmt"
	"strconv"
)

type Kind int

const (
	// KindNone is the kind of an absent value
	KindNone Kind = iota
	KindString
	// KindDWord is a fixed-width 32-bit integer
	KindDWord
	// KindQWord is a fixed-width 64-bit integer
	KindQWord
	KindBinary
)

var kindNames = []string{"none", "string", "dword", "qword", "binary"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if i > 0 && name == s {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown kind '%s'", s)
}

// Value is a typed scalar stored in an entry.
// Str is set for KindString, Int for KindDWord and KindQWord,
// Bin for KindBinary. The zero Value is absent.
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Bin  []byte
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func DWordValue(n int32) Value {
	return Value{Kind: KindDWord, Int: int64(n)}
}

func QWordValue(n int64) Value {
	return Value{Kind: KindQWord, Int: n}
}

// BinaryValue doesn't copy b
func BinaryValue(b []byte) Value {
	return Value{Kind: KindBinary, Bin: b}
}

func (v Value) IsAbsent() bool {
	return v.Kind == KindNone
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindDWord, KindQWord:
		return v.Int == o.Int
	case KindBinary:
		return bytes.Equal(v.Bin, o.Bin)
	}
	return true
}

// Clone returns a copy that doesn't share Bin with v
func (v Value) Clone() Value {
	if v.Bin != nil {
		v.Bin = append([]byte{}, v.Bin...)
	}
	return v
}

// Interface returns string, int32, int64, []byte or nil
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindDWord:
		return int32(v.Int)
	case KindQWord:
		return v.Int
	case KindBinary:
		return v.Bin
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindDWord, KindQWord:
		return strconv.FormatInt(v.Int, 10)
	case KindBinary:
		return fmt.Sprintf("%x", v.Bin)
	}
	return ""
}

var kindChars = []byte{0, 's', 'd', 'q', 'b'}

// EncodeData returns a single character tag of the kind and the data of v
// in its serialized form: text for strings, decimal for integers
// and raw bytes for binary.
func EncodeData(v Value) (byte, []byte, error) {
	switch v.Kind {
	case KindString:
		return 's', []byte(v.Str), nil
	case KindDWord, KindQWord:
		return kindChars[v.Kind], strconv.AppendInt(nil, v.Int, 10), nil
	case KindBinary:
		return 'b', v.Bin, nil
	}
	return 0, nil, fmt.Errorf("can't encode value of kind %s", v.Kind)
}

// DecodeData is the inverse of EncodeData
func DecodeData(tag byte, d []byte) (Value, error) {
	switch tag {
	case 's':
		return StringValue(string(d)), nil
	case 'd':
		n, err := strconv.ParseInt(string(d), 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid dword '%s': %w", d, err)
		}
		return DWordValue(int32(n)), nil
	case 'q':
		n, err := strconv.ParseInt(string(d), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid qword '%s': %w", d, err)
		}
		return QWordValue(n), nil
	case 'b':
		return BinaryValue(append([]byte{}, d...)), nil
	}
	return Value{}, fmt.Errorf("unknown kind tag '%c'", tag)
}
