package writer

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type rec struct {
	Word string `json:"word"`
	N    int    `json:"n"`
}

func TestRoundTrip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.jsonl")

	w, err := New(dest, false)
	if err != nil {
		t.Fatal(err)
	}

	const n = 2500 // crosses the flush boundary twice
	for i := 0; i < n; i++ {
		if err := w.Write(rec{Word: "w", N: i}); err != nil {
			t.Fatal(err)
		}
	}
	if w.Count() != n {
		t.Errorf("Count() = %d, want %d", w.Count(), n)
	}
	if err := w.Close(true); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	i := 0
	for sc.Scan() {
		var r rec
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if r.N != i {
			t.Fatalf("line %d out of order: got %d", i, r.N)
		}
		i++
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	if i != n {
		t.Errorf("read back %d records, want %d", i, n)
	}

	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after commit")
	}
}

func TestAbortPreservesPreviousOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.jsonl")
	previous := []byte("{\"word\":\"old\"}\n")
	if err := os.WriteFile(dest, previous, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(dest, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(rec{Word: "new"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(false); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(previous) {
		t.Errorf("previous output was clobbered: %q", got)
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after abort")
	}
}

func TestCommitReplacesPreviousOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(dest, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(dest, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(rec{Word: "fresh", N: 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(true); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\"word\":\"fresh\",\"n\":1}\n"; string(got) != want {
		t.Errorf("committed output = %q, want %q", got, want)
	}
}

func TestCommitWithNoPreviousOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "never-existed.jsonl")

	w, err := New(dest, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(true); err != nil {
		t.Fatalf("commit with absent destination: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing after commit: %v", err)
	}
}

func TestHumanReadableStyle(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json")

	w, err := New(dest, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(rec{Word: "hi", N: 7}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(true); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"word\": \"hi\",\n  \"n\": 7\n}\n"
	if string(got) != want {
		t.Errorf("human-readable output = %q, want %q", got, want)
	}
}
