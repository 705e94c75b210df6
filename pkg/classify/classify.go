// Package classify routes page titles to the extraction pipeline and maps
// them to filesystem-safe archival paths.
package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// entryPrefix buckets archived entry pages into shallow directory groups.
	entryPrefix = "Words"

	// Titles longer than this are shortened with a digest suffix so archival
	// paths stay inside filesystem limits while remaining near-unique.
	maxKeyRunes  = 100
	digestHexLen = 10

	slashEscape  = "__slashslash__"
	dotEscape    = "__dot__"
	dotDotEscape = "__dotdot__"
)

// titles like "Category:Foo": an uppercase letter, a lowercase letter, then
// alphanumerics/-/_, a colon, and a non-empty remainder.
var nsPattern = regexp.MustCompile(`^([A-Z][a-z][A-Za-z0-9_-]*):(.+)$`)

// Administrative and meta namespaces. Pages here are dropped entirely.
var ignoredTags = map[string]bool{
	"Media":          true,
	"Special":        true,
	"Talk":           true,
	"User":           true,
	"User talk":      true,
	"File":           true,
	"File talk":      true,
	"MediaWiki":      true,
	"MediaWiki talk": true,
	"Help":           true,
	"Help talk":      true,
	"Summary":        true,
	"Wiktionary talk": true,
	"Template talk":  true,
	"Module talk":    true,
	"Category talk":  true,
	"Appendix talk":  true,
	"Thesaurus talk": true,
}

// Content namespaces that are not dictionary entries but are worth archiving.
var recognizedTags = map[string]bool{
	"Category":       true,
	"Appendix":       true,
	"Project":        true,
	"Thesaurus":      true,
	"Module":         true,
	"Template":       true,
	"Wiktionary":     true,
	"Reconstruction": true,
	"Rhymes":         true,
	"Index":          true,
	"Citations":      true,
	"Concordance":    true,
	"Sign":           true,
}

// Result is the routing decision for one page.
type Result struct {
	// IsEntry reports whether the page should undergo dictionary extraction.
	IsEntry bool
	// Key is the normalized lookup key; set only for entry pages.
	Key string
	// Path is the relative archival path; set only when archival ran.
	Path string
}

// Classifier routes pages and, when configured with an archival root,
// persists their raw text as a side effect.
type Classifier struct {
	root   string // empty disables archival
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Classifier {
	return &Classifier{root: root, logger: logger}
}

// Classify routes one page. Archival failures are logged with the offending
// path and title and never affect the routing result.
func (c *Classifier) Classify(model, title, text string) Result {
	if m := nsPattern.FindStringSubmatch(title); m != nil {
		tag := m[1]
		switch {
		case ignoredTags[tag]:
			return Result{}
		case recognizedTags[tag]:
			res := Result{}
			if c.root != "" {
				res.Path = c.archive(title, title, text)
			}
			return res
		default:
			c.logger.Warn("unrecognized namespace prefix",
				"prefix", tag, "title", title, "model", model)
			return Result{}
		}
	}

	key := EntryKey(title)
	res := Result{IsEntry: true, Key: key}
	if c.root != "" {
		res.Path = c.archive(key, title, text)
	}
	return res
}

// EntryKey returns the normalized, collision-resistant lookup key for an
// entry title. Deterministic and independent of archival settings.
func EntryKey(title string) string {
	runes := []rune(title)
	short := title
	if len(runes) > maxKeyRunes {
		sum := sha256.Sum256([]byte(title))
		short = string(runes[:maxKeyRunes]) + "-" + hex.EncodeToString(sum[:])[:digestHexLen]
	}
	bucket := runes
	if len(bucket) > 2 {
		bucket = bucket[:2]
	}
	return entryPrefix + "/" + string(bucket) + "/" + short
}

// SafePath converts a title or normalized key to a relative path with no
// traversal segments: doubled separators become a literal escape token,
// namespace colons become directory separators, dot-only segments are
// escaped, and repeated separators collapse.
func SafePath(title string) string {
	t := strings.ReplaceAll(title, "//", slashEscape)
	t = strings.ReplaceAll(t, ":", "/")

	parts := strings.Split(t, "/")
	out := parts[:0]
	for _, p := range parts {
		switch p {
		case "":
			continue
		case ".":
			p = dotEscape
		case "..":
			p = dotDotEscape
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

// archive writes the page text under the archival root, best-effort. The
// first line identifies the original title; the remainder is the raw text
// with standard HTML entities decoded. Returns the relative path used.
func (c *Classifier) archive(key, title, text string) string {
	rel := SafePath(key)
	full := filepath.Join(c.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		c.logger.Error("archival mkdir failed", "path", full, "title", title, "error", err)
		return rel
	}
	content := fmt.Sprintf("TITLE: %s\n%s", title, html.UnescapeString(text))
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		c.logger.Error("archival write failed", "path", full, "title", title, "error", err)
	}
	return rel
}

// ReadArchived reads a page previously written by archive, returning the
// original title and the stored text.
func ReadArchived(path string) (title, text string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read page file: %w", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "TITLE: ") {
		return "", "", fmt.Errorf("page file %s: missing TITLE header", path)
	}
	s = s[len("TITLE: "):]
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return strings.TrimRight(s, "\r"), "", nil
	}
	return strings.TrimRight(s[:nl], "\r"), s[nl+1:], nil
}
