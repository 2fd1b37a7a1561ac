//go:build windows

package winreg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kjk/appregistry/regstore"
	"golang.org/x/sys/windows/registry"
)

func (Store) Open(path string, writable bool) (regstore.Key, error) {
	p := KeyPath(path)
	if p == "" {
		return nil, errors.New("empty location path")
	}
	var k registry.Key
	var err error
	if writable {
		k, _, err = registry.CreateKey(registry.CURRENT_USER, p, registry.QUERY_VALUE|registry.SET_VALUE)
	} else {
		k, err = registry.OpenKey(registry.CURRENT_USER, p, registry.QUERY_VALUE)
		if errors.Is(err, registry.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", regstore.ErrNotExist, path)
		}
	}
	if err != nil {
		return nil, err
	}
	return &key{k: k, writable: writable}, nil
}

type key struct {
	k        registry.Key
	writable bool
	closed   bool
}

func (k *key) SetValue(name string, v regstore.Value) error {
	if err := regstore.ValidateName(name); err != nil {
		return err
	}
	if v.IsAbsent() {
		return regstore.ErrAbsentValue
	}
	if k.closed {
		return regstore.ErrClosed
	}
	if !k.writable {
		return regstore.ErrReadOnly
	}
	switch v.Kind {
	case regstore.KindString:
		return k.k.SetStringValue(name, v.Str)
	case regstore.KindDWord:
		return k.k.SetDWordValue(name, uint32(int32(v.Int)))
	case regstore.KindQWord:
		return k.k.SetQWordValue(name, uint64(v.Int))
	case regstore.KindBinary:
		return k.k.SetBinaryValue(name, v.Bin)
	}
	return fmt.Errorf("can't store value of kind %s", v.Kind)
}

func (k *key) GetValue(name string, def regstore.Value) (regstore.Value, error) {
	if k.closed {
		return regstore.Value{}, regstore.ErrClosed
	}
	_, typ, err := k.k.GetValue(name, nil)
	if errors.Is(err, registry.ErrNotExist) {
		return def, nil
	}
	if err != nil {
		return regstore.Value{}, err
	}
	switch typ {
	case registry.SZ, registry.EXPAND_SZ:
		s, _, err := k.k.GetStringValue(name)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.StringValue(s), nil
	case registry.DWORD:
		n, _, err := k.k.GetIntegerValue(name)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.DWordValue(int32(uint32(n))), nil
	case registry.QWORD:
		n, _, err := k.k.GetIntegerValue(name)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.QWordValue(int64(n)), nil
	case registry.BINARY:
		d, _, err := k.k.GetBinaryValue(name)
		if err != nil {
			return regstore.Value{}, err
		}
		return regstore.BinaryValue(d), nil
	}
	return regstore.Value{}, fmt.Errorf("value '%s' has unsupported registry type %d", name, typ)
}

func (k *key) ValueNames() ([]string, error) {
	if k.closed {
		return nil, regstore.ErrClosed
	}
	names, err := k.k.ReadValueNames(0)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (k *key) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	return k.k.Close()
}
