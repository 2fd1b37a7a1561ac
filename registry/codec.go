package registry

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/kjk/appregistry/regstore"
)

// Encode converts a field value to a stored value.
// Enums are stored as DWord, see encodeEnum.
func Encode(v reflect.Value) (regstore.Value, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return regstore.Value{}, nil
		}
		v = v.Elem()
	}
	t := v.Type()
	if isEnum(t) {
		return encodeEnum(v), nil
	}
	if isTextType(t) {
		d, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.StringValue(string(d)), nil
	}

	switch t.Kind() {
	case reflect.String:
		return regstore.StringValue(v.String()), nil
	case reflect.Bool:
		if v.Bool() {
			return regstore.DWordValue(1), nil
		}
		return regstore.DWordValue(0), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return regstore.DWordValue(int32(v.Int())), nil
	case reflect.Uint8, reflect.Uint16:
		return regstore.DWordValue(int32(v.Uint())), nil
	case reflect.Int, reflect.Int64:
		return regstore.QWordValue(v.Int()), nil
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		// qword is stored as bits so that all uint64 values survive
		return regstore.QWordValue(int64(v.Uint())), nil
	case reflect.Float32:
		return regstore.StringValue(strconv.FormatFloat(v.Float(), 'g', -1, 32)), nil
	case reflect.Float64:
		return regstore.StringValue(strconv.FormatFloat(v.Float(), 'g', -1, 64)), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return regstore.BinaryValue(append([]byte{}, v.Bytes()...)), nil
		}
	}
	return regstore.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// encodeEnum stores unsigned enums up to 32 bits as DWord bit pattern.
// Enums of int and uint kind are stored as QWord if the value doesn't fit
// in a DWord.
func encodeEnum(v reflect.Value) regstore.Value {
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return regstore.DWordValue(int32(uint32(v.Uint())))
	case reflect.Uint:
		u := v.Uint()
		if u > math.MaxInt32 {
			return regstore.QWordValue(int64(u))
		}
		return regstore.DWordValue(int32(u))
	}
	n := v.Int()
	if n < math.MinInt32 || n > math.MaxInt32 {
		return regstore.QWordValue(n)
	}
	return regstore.DWordValue(int32(n))
}

func mismatch(dst reflect.Type, v regstore.Value) error {
	return fmt.Errorf("%w: can't store %s '%s' in %s", ErrTypeMismatch, v.Kind, v, dst)
}

// Assign stores v in dst, coercing the stored kind to the type of dst.
// Nil pointers are allocated.
func Assign(dst reflect.Value, v regstore.Value) error {
	if v.IsAbsent() {
		return nil
	}
	if !dst.CanSet() {
		return fmt.Errorf("%w: %s is not settable", ErrUnsupportedType, dst.Type())
	}
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		nv := reflect.New(t.Elem())
		if !dst.IsNil() {
			nv.Elem().Set(dst.Elem())
		}
		if err := Assign(nv.Elem(), v); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	}

	if !isEnum(t) && isTextType(t) {
		if v.Kind != regstore.KindString {
			return mismatch(t, v)
		}
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(v.Str))
	}

	switch t.Kind() {
	case reflect.String:
		switch v.Kind {
		case regstore.KindString:
			dst.SetString(v.Str)
		case regstore.KindDWord, regstore.KindQWord:
			dst.SetString(strconv.FormatInt(v.Int, 10))
		default:
			return mismatch(t, v)
		}
		return nil

	case reflect.Bool:
		switch v.Kind {
		case regstore.KindDWord, regstore.KindQWord:
			dst.SetBool(v.Int != 0)
		case regstore.KindString:
			b, err := strconv.ParseBool(v.Str)
			if err != nil {
				return mismatch(t, v)
			}
			dst.SetBool(b)
		default:
			return mismatch(t, v)
		}
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(v)
		if err != nil || dst.OverflowInt(n) {
			return mismatch(t, v)
		}
		dst.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		switch v.Kind {
		case regstore.KindDWord:
			if v.Int < 0 {
				if t.Kind() != reflect.Uint32 {
					return mismatch(t, v)
				}
				// bit pattern of uint32 stored as DWord
				u = uint64(uint32(int32(v.Int)))
			} else {
				u = uint64(v.Int)
			}
		case regstore.KindQWord:
			u = uint64(v.Int)
		case regstore.KindString:
			var err error
			if u, err = strconv.ParseUint(v.Str, 10, 64); err != nil {
				return mismatch(t, v)
			}
		default:
			return mismatch(t, v)
		}
		if dst.OverflowUint(u) {
			return mismatch(t, v)
		}
		dst.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		var f float64
		switch v.Kind {
		case regstore.KindString:
			var err error
			if f, err = strconv.ParseFloat(v.Str, t.Bits()); err != nil {
				return mismatch(t, v)
			}
		case regstore.KindDWord, regstore.KindQWord:
			f = float64(v.Int)
		default:
			return mismatch(t, v)
		}
		dst.SetFloat(f)
		return nil

	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			break
		}
		switch v.Kind {
		case regstore.KindBinary:
			dst.SetBytes(append([]byte{}, v.Bin...))
		case regstore.KindString:
			dst.SetBytes([]byte(v.Str))
		default:
			return mismatch(t, v)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func toInt(v regstore.Value) (int64, error) {
	switch v.Kind {
	case regstore.KindDWord, regstore.KindQWord:
		return v.Int, nil
	case regstore.KindString:
		return strconv.ParseInt(v.Str, 10, 64)
	}
	return 0, fmt.Errorf("not an integer")
}
