package journalstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regstore"
)

const (
	kindLocation = "loc"
	kindSet      = "set"
)

type Record struct {
	// offset in data file, 0 means no data
	Offset int64
	Size   int64
	// time in utc unix milliseconds (milliseconds since January 1, 1970, 00:00:00 UTC)
	TimestampMs int64
	// kind of the record, "loc" or "set"
	Kind string
	// can't contain newlines
	Meta string
}

// Change is a value written to an entry at a given time
type Change struct {
	Value regstore.Value
	Time  time.Time
}

type location struct {
	values map[string]regstore.Value
	// records of set entries, in order they were written
	history map[string][]*Record
}

type Store struct {
	DataDir       string
	IndexFileName string
	DataFileName  string

	indexFilePath string
	dataFilePath  string
	records       []*Record
	locations     map[string]*location
	mu            sync.Mutex
}

var _ regstore.Store = &Store{}

// returns offset at which the data was written
// we write len(data) bytes
func appendToFileRobust(path string, data []byte) (int64, error) {
	// get file size
	info, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	var offset int64 = 0 // if file does not exist, offset is 0
	if info != nil {
		offset = info.Size()
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	_, err = file.Write(data)
	if err != nil {
		file.Close()
		return 0, err
	}
	err = file.Sync()
	if err != nil {
		file.Close()
		return 0, err
	}
	err = file.Close()
	if err != nil {
		return 0, err
	}
	return offset, nil
}

func (s *Store) appendRecord(kind string, data []byte, meta string) (*Record, error) {
	if strings.Contains(meta, "\n") {
		return nil, fmt.Errorf("metadata cannot contain newlines")
	}
	rec := &Record{}
	var err error
	if len(data) > 0 {
		rec.Offset, err = appendToFileRobust(s.dataFilePath, data)
		if err != nil {
			return nil, err
		}
	}
	rec.Size = int64(len(data))
	rec.TimestampMs = time.Now().UTC().UnixMilli()
	rec.Kind = kind
	rec.Meta = meta

	// format of the index line:
	// <offset> <length> <timestamp> <kind> <meta>
	indexLine := fmt.Sprintf("%d %d %d %s %s\n", rec.Offset, rec.Size, rec.TimestampMs, rec.Kind, rec.Meta)
	_, err = appendToFileRobust(s.indexFilePath, []byte(indexLine))
	if err != nil {
		return nil, err
	}
	s.records = append(s.records, rec)
	return rec, nil
}

// ParseIndexLine parses a line of index file into res
func ParseIndexLine(line string, res *Record) error {
	parts := strings.SplitN(line, " ", 5)
	if len(parts) < 5 {
		return fmt.Errorf("invalid index line: %s", line)
	}

	var err error
	res.Offset, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offset in index line: %s", line)
	}
	res.Size, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size in index line: %s", line)
	}
	res.TimestampMs, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid time in index line: %s", line)
	}
	res.Kind = parts[3]
	res.Meta = parts[4]
	if res.Offset < 0 || res.Size < 0 || res.TimestampMs < 0 {
		return fmt.Errorf("invalid index line: %s", line)
	}
	return nil
}

func setMeta(tag byte, path, name string) string {
	return string(tag) + " " + strconv.Quote(path) + " " + strconv.Quote(name)
}

func parseSetMeta(meta string) (tag byte, path string, name string, err error) {
	if len(meta) < 3 || meta[1] != ' ' {
		return 0, "", "", fmt.Errorf("invalid set meta: %s", meta)
	}
	tag = meta[0]
	rest := meta[2:]
	quoted, err := strconv.QuotedPrefix(rest)
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid set meta: %s", meta)
	}
	path, _ = strconv.Unquote(quoted)
	rest = strings.TrimPrefix(rest[len(quoted):], " ")
	name, err = strconv.Unquote(rest)
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid set meta: %s", meta)
	}
	return tag, path, name, nil
}

// readFilePart efficiently reads a specific portion of a file
func readFilePart(file *os.File, offset int64, n int64) ([]byte, error) {
	_, err := file.Seek(offset, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to seek to offset %d: %w", offset, err)
	}
	buf := make([]byte, n)
	_, err = io.ReadFull(file, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d bytes at offset %d: %w", n, offset, err)
	}
	return buf, nil
}

func (s *Store) readValue(rec *Record, tag byte) (regstore.Value, error) {
	var d []byte
	if rec.Size > 0 {
		f, err := os.Open(s.dataFilePath)
		if err != nil {
			return regstore.Value{}, err
		}
		defer f.Close()
		d, err = readFilePart(f, rec.Offset, rec.Size)
		if err != nil {
			return regstore.Value{}, err
		}
	}
	return regstore.DecodeData(tag, d)
}

func (s *Store) getLocation(path string, create bool) *location {
	loc := s.locations[path]
	if loc == nil && create {
		loc = &location{
			values:  map[string]regstore.Value{},
			history: map[string][]*Record{},
		}
		s.locations[path] = loc
	}
	return loc
}

func (s *Store) replay(rec *Record, dataFile *os.File) error {
	switch rec.Kind {
	case kindLocation:
		path, err := strconv.Unquote(rec.Meta)
		if err != nil {
			return fmt.Errorf("invalid location meta: %s", rec.Meta)
		}
		s.getLocation(path, true)
	case kindSet:
		tag, path, name, err := parseSetMeta(rec.Meta)
		if err != nil {
			return err
		}
		var d []byte
		if rec.Size > 0 {
			if dataFile == nil {
				return fmt.Errorf("missing data file %s", s.dataFilePath)
			}
			if d, err = readFilePart(dataFile, rec.Offset, rec.Size); err != nil {
				return err
			}
		}
		v, err := regstore.DecodeData(tag, d)
		if err != nil {
			return err
		}
		loc := s.getLocation(path, true)
		loc.values[name] = v
		loc.history[name] = append(loc.history[name], rec)
	default:
		return fmt.Errorf("unknown record kind '%s'", rec.Kind)
	}
	return nil
}

// OpenStore opens (creating if needed) a journal in s.DataDir and replays it
func OpenStore(s *Store) error {
	if s.DataDir == "" {
		return fmt.Errorf("data directory is not set. For current directory, use '.'")
	}
	if s.IndexFileName == "" {
		s.IndexFileName = "index.txt"
	}
	if s.DataFileName == "" {
		s.DataFileName = "data.bin"
	}

	var err error
	s.indexFilePath, err = filepath.Abs(filepath.Join(s.DataDir, s.IndexFileName))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for index file: %w", err)
	}
	s.dataFilePath, err = filepath.Abs(filepath.Join(s.DataDir, s.DataFileName))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for data file: %w", err)
	}
	if err = os.MkdirAll(s.DataDir, 0755); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.locations = map[string]*location{}

	indexFile, err := os.OpenFile(s.indexFilePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer indexFile.Close()
	dataFile, err := os.Open(s.dataFilePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if dataFile != nil {
		defer dataFile.Close()
	}

	scanner := bufio.NewScanner(indexFile)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue // skip empty lines
		}
		rec := &Record{}
		if err = ParseIndexLine(line, rec); err != nil {
			return err
		}
		if err = s.replay(rec, dataFile); err != nil {
			log.Errorf("journalstore: replaying '%s' from %s failed with '%s'\n", line, s.indexFilePath, err)
			return fmt.Errorf("replaying '%s': %w", line, err)
		}
		s.records = append(s.records, rec)
	}
	if err = scanner.Err(); err != nil {
		return fmt.Errorf("error reading index file: %w", err)
	}
	return nil
}

// Records returns all records in the journal
func (s *Store) Records() []*Record {
	s.mu.Lock()
	res := append([]*Record{}, s.records...)
	s.mu.Unlock()
	return res
}

// Paths returns sorted paths of all locations
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []string
	for path := range s.locations {
		res = append(res, path)
	}
	sort.Strings(res)
	return res
}

// History returns every value written to entry name of location path,
// oldest first
func (s *Store) History(path, name string) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.getLocation(path, false)
	if loc == nil {
		return nil, fmt.Errorf("%w: %s", regstore.ErrNotExist, path)
	}
	var res []Change
	for _, rec := range loc.history[name] {
		tag, _, _, err := parseSetMeta(rec.Meta)
		if err != nil {
			return nil, err
		}
		v, err := s.readValue(rec, tag)
		if err != nil {
			return nil, err
		}
		res = append(res, Change{Value: v, Time: time.UnixMilli(rec.TimestampMs).UTC()})
	}
	return res, nil
}

func (s *Store) Open(path string, writable bool) (regstore.Key, error) {
	if strings.Contains(path, "\n") || path == "" {
		return nil, fmt.Errorf("invalid location path '%s'", path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locations == nil {
		return nil, fmt.Errorf("store is not open, call OpenStore()")
	}
	if s.getLocation(path, false) == nil {
		if !writable {
			return nil, fmt.Errorf("%w: %s", regstore.ErrNotExist, path)
		}
		if _, err := s.appendRecord(kindLocation, nil, strconv.Quote(path)); err != nil {
			return nil, err
		}
		s.getLocation(path, true)
	}
	return &key{store: s, path: path, writable: writable}, nil
}

type key struct {
	store    *Store
	path     string
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
	tag, d, err := regstore.EncodeData(v)
	if err != nil {
		return err
	}
	s := k.store
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.getLocation(k.path, true)
	if prev, ok := loc.values[name]; ok && prev.Equal(v) {
		return nil
	}
	rec, err := s.appendRecord(kindSet, d, setMeta(tag, k.path, name))
	if err != nil {
		return err
	}
	loc.values[name] = v.Clone()
	loc.history[name] = append(loc.history[name], rec)
	return nil
}

func (k *key) GetValue(name string, def regstore.Value) (regstore.Value, error) {
	if k.closed {
		return regstore.Value{}, regstore.ErrClosed
	}
	s := k.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.getLocation(k.path, true).values[name]; ok {
		return v.Clone(), nil
	}
	return def, nil
}

func (k *key) ValueNames() ([]string, error) {
	if k.closed {
		return nil, regstore.ErrClosed
	}
	s := k.store
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.getLocation(k.path, true)
	res := make([]string, 0, len(loc.values))
	for name := range loc.values {
		res = append(res, name)
	}
	sort.Strings(res)
	return res, nil
}

func (k *key) Close() error {
	k.closed = true
	return nil
}
