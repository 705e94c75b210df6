// Package writer streams extracted records to an output destination with
// atomic-commit semantics for real file paths.
package writer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Records go to durable storage in batches of this size when the destination
// is a real file. Stream destinations flush after every record so pipeline
// consumers see timely data.
const fileFlushEvery = 1000

// Writer serializes records one JSON document at a time. For real file
// destinations everything is written to a temporary sibling first; the
// temporary is renamed over the destination only on a clean close, so a
// reader never observes a partially written final file.
type Writer struct {
	dest  string
	tmp   string // non-empty when writing through a temporary sibling
	file  *os.File
	buf   *bufio.Writer
	human bool
	count int
}

// isStream reports whether dest is the standard-output stream or a device
// path, neither of which gets the temp-and-rename treatment.
func isStream(dest string) bool {
	return dest == "" || dest == "-" || strings.HasPrefix(dest, "/dev/")
}

// New opens a writer for dest. "-" or an empty dest selects stdout. When
// humanReadable is set, records are emitted as indented multi-line JSON;
// otherwise one compact document per line.
func New(dest string, humanReadable bool) (*Writer, error) {
	w := &Writer{dest: dest, human: humanReadable}

	if isStream(dest) {
		out := os.Stdout
		if dest != "" && dest != "-" {
			f, err := os.OpenFile(dest, os.O_WRONLY, 0)
			if err != nil {
				return nil, fmt.Errorf("open output device: %w", err)
			}
			w.file = f
			out = f
		}
		w.buf = bufio.NewWriter(out)
		return w, nil
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create temporary output: %w", err)
	}
	w.tmp = tmp
	w.file = f
	w.buf = bufio.NewWriter(f)
	return w, nil
}

// Write serializes one record and appends it to the destination.
func (w *Writer) Write(rec any) error {
	var data []byte
	var err error
	if w.human {
		data, err = json.MarshalIndent(rec, "", "  ")
	} else {
		data, err = json.Marshal(rec)
	}
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	w.count++
	if w.tmp == "" || w.count%fileFlushEvery == 0 {
		if err := w.buf.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	return nil
}

// Count returns the number of records emitted so far.
func (w *Writer) Count() int { return w.count }

// Close flushes buffered records and commits or discards the output. When ok
// is true and the destination is a real file, the temporary file replaces
// the destination (removing any pre-existing file first; its absence is not
// an error). When ok is false the temporary file is removed and a previous
// successful output stays untouched.
func (w *Writer) Close(ok bool) error {
	flushErr := w.buf.Flush()

	if w.file != nil {
		if err := w.file.Close(); err != nil && flushErr == nil {
			flushErr = fmt.Errorf("close output: %w", err)
		}
	}

	if w.tmp == "" {
		return flushErr
	}

	if !ok || flushErr != nil {
		os.Remove(w.tmp)
		return flushErr
	}

	if err := os.Remove(w.dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove previous output: %w", err)
	}
	if err := os.Rename(w.tmp, w.dest); err != nil {
		return fmt.Errorf("commit output: %w", err)
	}
	return nil
}
