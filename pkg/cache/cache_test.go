package cache

import (
	"testing"
)

// setupTestCache creates an in-memory SQLite cache for testing
func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := openPath(":memory:")
	if err != nil {
		t.Fatalf("failed to create test cache: %v", err)
	}
	return c
}

func TestPutGet(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	if err := c.Put("hello", "wikitext", "expanded body"); err != nil {
		t.Fatal(err)
	}

	model, expanded, ok, err := c.Get("hello")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Get() missed a stored page")
	}
	if model != "wikitext" || expanded != "expanded body" {
		t.Errorf("Get() = (%q, %q)", model, expanded)
	}

	_, _, ok, err = c.Get("absent")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Get() hit for a page never stored")
	}
}

func TestPutReplacesPreviousRevision(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	if err := c.Put("hello", "wikitext", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("hello", "wikitext", "v2"); err != nil {
		t.Fatal(err)
	}

	_, expanded, ok, err := c.Get("hello")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if expanded != "v2" {
		t.Errorf("expanded = %q, want v2", expanded)
	}

	n, err := c.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestEachInsertionOrder(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	titles := []string{"zebra", "apple", "mango"}
	for _, title := range titles {
		if err := c.Put(title, "wikitext", "body of "+title); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	err := c.Each(func(title, model, expanded string) error {
		got = append(got, title)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, title := range titles {
		if got[i] != title {
			t.Fatalf("Each order = %v, want %v", got, titles)
		}
	}
}

func TestMeta(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	v, err := c.GetMeta("dump")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("unset meta = %q, want empty", v)
	}

	if err := c.SetMeta("dump", "enwiktionary.xml.bz2"); err != nil {
		t.Fatal(err)
	}
	v, err = c.GetMeta("dump")
	if err != nil {
		t.Fatal(err)
	}
	if v != "enwiktionary.xml.bz2" {
		t.Errorf("meta = %q", v)
	}
}
