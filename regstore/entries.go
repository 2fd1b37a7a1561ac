package regstore

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

/*
Entries are serialized one per line, sorted by name:

	name:<tag> <data>\n

When data is long (> 120 chars), empty, binary or not printable
on a single line, we use size-prefixed format:

	name:<tag>+<len>\n
	<data>\n

<tag> is 's' (string), 'd' (dword), 'q' (qword) or 'b' (binary).
*/

// Entries maps entry name to its value
type Entries map[string]Value

// Names returns sorted names
func (e Entries) Names() []string {
	res := make([]string, 0, len(e))
	for name := range e {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (e Entries) Clone() Entries {
	res := make(Entries, len(e))
	for name, v := range e {
		res[name] = v.Clone()
	}
	return res
}

func serializableOnLine(d []byte) bool {
	for _, b := range d {
		if b < 32 || b > 127 {
			return false
		}
	}
	return true
}

// return true if value needs to be serialized in long,
// size-prefixed format
func needsLongFormat(tag byte, d []byte) bool {
	return tag == 'b' || len(d) == 0 || len(d) > 120 || !serializableOnLine(d)
}

// Marshal serializes entries. Output is deterministic.
func (e Entries) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for _, name := range e.Names() {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		tag, d, err := EncodeData(e[name])
		if err != nil {
			return nil, fmt.Errorf("entry '%s': %w", name, err)
		}
		buf.WriteString(name)
		buf.WriteByte(':')
		buf.WriteByte(tag)
		if !needsLongFormat(tag, d) {
			buf.WriteByte(' ')
			buf.Write(d)
			buf.WriteByte('\n')
			continue
		}
		buf.WriteByte('+')
		buf.WriteString(strconv.Itoa(len(d)))
		buf.WriteByte('\n')
		buf.Write(d)
		// for readability: next entry always starts on a new line
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// UnmarshalEntries decodes data created with Entries.Marshal
func UnmarshalEntries(d []byte) (Entries, error) {
	res := Entries{}
	for len(d) > 0 {
		idx := bytes.IndexByte(d, '\n')
		if idx == -1 {
			return nil, fmt.Errorf("missing '\\n' at the end of '%s'", d)
		}
		line := d[:idx]
		d = d[idx+1:]
		idx = bytes.IndexByte(line, ':')
		if idx == -1 {
			return nil, fmt.Errorf("line in unrecognized format: '%s'", line)
		}
		name := string(line[:idx])
		val := line[idx+1:]
		// at least a tag and ' ' or '+'
		if len(val) < 2 {
			return nil, fmt.Errorf("line in unrecognized format: '%s'", line)
		}
		tag := val[0]
		format := val[1]
		val = val[2:]
		if format == '+' {
			n, err := strconv.Atoi(string(val))
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, fmt.Errorf("negative length %d of data", n)
			}
			if n > len(d) {
				return nil, fmt.Errorf("length of value %d greater than remaining data of size %d", n, len(d))
			}
			val = d[:n]
			d = d[n:]
			if len(d) > 0 && d[0] == '\n' {
				d = d[1:]
			}
		} else if format != ' ' {
			return nil, fmt.Errorf("line in unrecognized format: '%s'", line)
		}
		v, err := DecodeData(tag, val)
		if err != nil {
			return nil, fmt.Errorf("entry '%s': %w", name, err)
		}
		res[name] = v
	}
	return res, nil
}
