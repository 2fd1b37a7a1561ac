// Package log writes messages to Output and, after Init, to daily files
// in three directories: log, errors and events.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var (
	// if true, Verbosef() logs
	Verbose bool

	// Output is where Logf() and Errorf() print, nil means nowhere
	Output io.Writer = os.Stdout

	mu    sync.Mutex
	files *logFiles
)

type Config struct {
	// Dir is the root of log directories
	Dir string
}

type logFiles struct {
	main   *DailyFile
	errors *DailyFile
	events *DailyFile
}

// DailyFile is an io.Writer appending to <Dir>/YYYY-MM-DD.txt of the
// current UTC day. Files are created on first write.
type DailyFile struct {
	Dir string

	day string
	f   *os.File
	mu  sync.Mutex
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if d.f != nil && d.day != day {
		_ = d.f.Close()
		d.f = nil
	}
	if d.f == nil {
		if err := os.MkdirAll(d.Dir, 0755); err != nil {
			return 0, err
		}
		path := filepath.Join(d.Dir, day+".txt")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return 0, err
		}
		d.f, d.day = f, day
	}
	return d.f.Write(p)
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// Init starts logging to files in c.Dir.
// Until then Logf only prints and Event is a no-op.
func Init(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	closeFiles()
	files = &logFiles{
		main:   &DailyFile{Dir: filepath.Join(c.Dir, "log")},
		errors: &DailyFile{Dir: filepath.Join(c.Dir, "errors")},
		events: &DailyFile{Dir: filepath.Join(c.Dir, "events")},
	}
}

func closeFiles() {
	if files == nil {
		return
	}
	_ = files.main.Close()
	_ = files.errors.Close()
	_ = files.events.Close()
	files = nil
}

// Close flushes and closes log files. Logging continues to Output.
func Close() {
	mu.Lock()
	closeFiles()
	mu.Unlock()
}

// write sends s to Output and the file selected by pick (if Init was called)
func write(s string, pick func(*logFiles) *DailyFile) {
	mu.Lock()
	defer mu.Unlock()
	if Output != nil {
		io.WriteString(Output, s)
	}
	if files != nil {
		pick(files).Write([]byte(s))
	}
}

func Logf(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	write(s, func(lf *logFiles) *DailyFile { return lf.main })
}

func Verbosef(format string, args ...any) {
	if Verbose {
		Logf(format, args...)
	}
}

// callstack returns "file:line" of callers, one per line,
// skipping skip frames above the caller of callstack
func callstack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var buf bytes.Buffer
	for {
		fr, more := frames.Next()
		if fr.File != "" {
			buf.WriteString(fr.File + ":" + strconv.Itoa(fr.Line) + "\n")
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// Errorf logs the message like Logf. The errors log also gets the
// call stack of the caller.
func Errorf(format string, args ...any) {
	errorf(1, format, args...)
}

func errorf(skip int, format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\n"
	}
	Logf("%s", s)
	mu.Lock()
	defer mu.Unlock()
	if files != nil {
		files.errors.Write([]byte(s + callstack(skip+1)))
	}
}

// IfErrf logs err with Errorf and returns true if err is not nil.
// With no args it logs err.Error(), otherwise args[0] is a format string
// for args[1:].
func IfErrf(err error, args ...any) bool {
	if err == nil {
		return false
	}
	if len(args) == 0 {
		errorf(1, "%s", err.Error())
		return true
	}
	format, ok := args[0].(string)
	if !ok {
		format = fmt.Sprint(args[0])
	}
	errorf(1, format, args[1:]...)
	return true
}

// MarshalEvent frames an event payload:
//
//	--- <len> <unix ms> <name>
//	<payload>
func MarshalEvent(name string, t time.Time, d []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("--- ")
	buf.WriteString(strconv.Itoa(len(d)))
	buf.WriteString(" ")
	buf.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	if name != "" {
		buf.WriteString(" ")
		buf.WriteString(name)
	}
	buf.WriteByte('\n')
	if len(d) > 0 {
		buf.Write(d)
		if d[len(d)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Event logs name with key / value pairs encoded as toon.
// A value without a key is logged under "extra".
func Event(name string, kv ...any) {
	mu.Lock()
	on := files != nil
	mu.Unlock()
	if !on {
		return
	}
	var d []byte
	if len(kv) > 0 {
		m := map[string]any{}
		for i := 0; i < len(kv); i += 2 {
			if i+1 == len(kv) {
				m["extra"] = kv[i]
				break
			}
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
		var err error
		if d, err = toon.Marshal(m); err != nil {
			Errorf("Event: toon.Marshal() failed with '%s'", err)
			return
		}
	}
	ev := MarshalEvent(name, time.Now().UTC(), d)
	mu.Lock()
	defer mu.Unlock()
	if files != nil {
		files.events.Write(ev)
	}
}
