package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexglot/wiktex/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const dumpHeader = `<mediawiki>
<siteinfo>
  <sitename>Wiktionary</sitename>
  <base>http://example.org</base>
  <generator>MediaWiki</generator>
  <case>case-sensitive</case>
  <namespaces><namespace key="0" case="case-sensitive">Main</namespace></namespaces>
</siteinfo>
`

func dumpPage(title, text string) string {
	return fmt.Sprintf(`<page>
  <title>%s</title>
  <id>1</id>
  <revision>
    <id>1</id>
    <timestamp>2026-01-01T00:00:00Z</timestamp>
    <contributor><username>tester</username><id>1</id></contributor>
    <comment>c</comment>
    <text>%s</text>
  </revision>
</page>
`, title, text)
}

// writeDump assembles a synthetic two-page-style dump file.
func writeDump(t *testing.T, dir string, pages ...string) string {
	t.Helper()
	var doc = dumpHeader
	for _, p := range pages {
		doc += p
	}
	doc += "</mediawiki>\n"

	path := filepath.Join(dir, "dump.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readRecords(t *testing.T, path string) []models.Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var out []models.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e models.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad record %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

const helloText = "==English==\n===Noun===\n# A greeting.\n"

func TestFullDumpWithArchival(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir,
		dumpPage("Category:Foo", "category body"),
		dumpPage("hello", helloText),
	)
	out := filepath.Join(dir, "out.jsonl")
	pagesDir := filepath.Join(dir, "pages")

	cfg := &models.RunConfig{
		Mode:     models.ModeFullDump,
		DumpPath: dump,
		OutPath:  out,
		PagesDir: pagesDir,
		Capture:  models.AllCapture(),
	}
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	// The category page is archived but produces no extraction record.
	if _, err := os.Stat(filepath.Join(pagesDir, "Category", "Foo")); err != nil {
		t.Errorf("category page not archived: %v", err)
	}
	// The entry page is archived under its bucketed normalized key.
	if _, err := os.Stat(filepath.Join(pagesDir, "Words", "he", "hello")); err != nil {
		t.Errorf("entry page not archived: %v", err)
	}

	records := readRecords(t, out)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Word != "hello" || records[0].Lang != "English" || records[0].Pos != "noun" {
		t.Errorf("record = %+v", records[0])
	}
	if p.RecordCount() != 1 {
		t.Errorf("RecordCount() = %d", p.RecordCount())
	}
}

func TestCacheReplayMatchesFullDump(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, dumpPage("hello", helloText))
	prefix := filepath.Join(dir, "phase1")

	full := &models.RunConfig{
		Mode:        models.ModeFullDump,
		DumpPath:    dump,
		OutPath:     filepath.Join(dir, "full.jsonl"),
		CachePrefix: prefix,
		Capture:     models.AllCapture(),
	}
	p1, err := New(full, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := p1.Run(); err != nil {
		t.Fatal(err)
	}
	p1.Close()

	replay := &models.RunConfig{
		Mode:        models.ModeCacheReplay,
		OutPath:     filepath.Join(dir, "replay.jsonl"),
		CachePrefix: prefix,
		Capture:     models.AllCapture(),
	}
	p2, err := New(replay, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()
	if err := p2.Run(); err != nil {
		t.Fatal(err)
	}

	a := readRecords(t, full.OutPath)
	b := readRecords(t, replay.OutPath)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("record counts: full %d, replay %d", len(a), len(b))
	}
	if a[0].Word != b[0].Word || a[0].Pos != b[0].Pos {
		t.Errorf("replay differs: %+v vs %+v", a[0], b[0])
	}
}

func TestFullDumpWithDebugTargetRunsPhaseOneOnly(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, dumpPage("hello", helloText))

	cfg := &models.RunConfig{
		Mode:        models.ModeFullDump,
		DumpPath:    dump,
		OutPath:     filepath.Join(dir, "out.jsonl"),
		CachePrefix: filepath.Join(dir, "phase1"),
		PagePath:    filepath.Join(dir, "ignored-target"),
		Capture:     models.AllCapture(),
	}
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	if got := readRecords(t, cfg.OutPath); len(got) != 0 {
		t.Errorf("phase-1-only pass emitted %d records", len(got))
	}
	if _, _, ok, err := p.cache.Get("hello"); err != nil || !ok {
		t.Errorf("phase-1 result not cached: ok=%v err=%v", ok, err)
	}
}

func TestSinglePageMode(t *testing.T) {
	dir := t.TempDir()
	pageFile := filepath.Join(dir, "hello.txt")
	content := "TITLE: hello\n" + helloText
	if err := os.WriteFile(pageFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &models.RunConfig{
		Mode:     models.ModeSinglePage,
		PagePath: pageFile,
		OutPath:  filepath.Join(dir, "out.jsonl"),
		Capture:  models.AllCapture(),
	}
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	records := readRecords(t, cfg.OutPath)
	if len(records) != 1 || records[0].Word != "hello" {
		t.Fatalf("records = %+v", records)
	}
}

func TestOverrideNeutralizesTemplate(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.txt")
	if err := os.WriteFile(override, []byte("TITLE: Template:defn\nplain gloss\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dump := writeDump(t, dir,
		dumpPage("word", "==English==\n===Noun===\n# {{defn|discarded}}\n"),
	)
	cfg := &models.RunConfig{
		Mode:          models.ModeFullDump,
		DumpPath:      dump,
		OutPath:       filepath.Join(dir, "out.jsonl"),
		OverridePaths: []string{override},
		Capture:       models.AllCapture(),
	}
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	records := readRecords(t, cfg.OutPath)
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if g := records[0].Senses[0].Glosses[0]; g != "plain gloss" {
		t.Errorf("gloss = %q, want override content", g)
	}
}

func TestErrorsFileWritten(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir,
		dumpPage("word", "==English==\n===Noun===\n# {{missing-template}}\n"),
	)
	errorsPath := filepath.Join(dir, "errors.yaml")

	cfg := &models.RunConfig{
		Mode:       models.ModeFullDump,
		DumpPath:   dump,
		OutPath:    filepath.Join(dir, "out.jsonl"),
		ErrorsPath: errorsPath,
		Capture:    models.AllCapture(),
	}
	p, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(errorsPath)
	if err != nil {
		t.Fatalf("errors file missing: %v", err)
	}
	if len(data) == 0 {
		t.Error("errors file empty")
	}
	if len(p.Issues().Debug) == 0 {
		t.Error("unknown template produced no debug issue")
	}
}
