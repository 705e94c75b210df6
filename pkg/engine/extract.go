package engine

import (
	"regexp"
	"strings"

	"github.com/lexglot/wiktex/models"
)

var (
	headingRe  = regexp.MustCompile(`^(={2,6})\s*(.+?)\s*=+\s*$`)
	redirectRe = regexp.MustCompile(`(?i)^#REDIRECT\s*:?\s*\[\[([^\]|]+)`)
	categoryRe = regexp.MustCompile(`\[\[Category:([^\]|]+)(?:\|[^\]]*)?\]\]`)
	wikiLinkRe = regexp.MustCompile(`\[\[(?:[^\]|]*\|)?([^\]|]*)\]\]`)
)

// Part-of-speech section headings that open a new entry.
var posHeadings = map[string]bool{
	"Noun":         true,
	"Proper noun":  true,
	"Verb":         true,
	"Adjective":    true,
	"Adverb":       true,
	"Pronoun":      true,
	"Preposition":  true,
	"Postposition": true,
	"Conjunction":  true,
	"Interjection": true,
	"Numeral":      true,
	"Determiner":   true,
	"Article":      true,
	"Particle":     true,
}

// Linkage relations keyed by their section heading.
var linkageHeadings = map[string]string{
	"Synonyms":      "synonyms",
	"Antonyms":      "antonyms",
	"Hypernyms":     "hypernyms",
	"Hyponyms":      "hyponyms",
	"Related terms": "related",
	"See also":      "see_also",
}

var inflectionHeadings = map[string]bool{
	"Declension":  true,
	"Conjugation": true,
	"Inflection":  true,
}

var compoundHeadings = map[string]bool{
	"Derived terms": true,
	"Compounds":     true,
}

// section tracks which capture bucket subsequent body lines feed.
type section int

const (
	secNone section = iota
	secSenses
	secTranslations
	secPronunciation
	secEtymology
	secLinkage
	secInflection
	secCompounds
)

// walker is the per-page extraction state. Etymology and pronunciation
// sections precede the part-of-speech section on real pages, so they
// accumulate at language scope and attach to every entry of that language.
type walker struct {
	e          *Engine
	title      string
	categories []string

	lang     string
	selected bool
	ety      string
	pron     []string

	entry    *models.Entry
	sec      section
	relation string
}

// Extract runs phase 2: it walks the expanded wikitext of one page and
// emits zero or more dictionary records. Per-page problems land in the
// issue collections; the walk itself never fails the run.
func (e *Engine) Extract(title, expanded string, emit Emit) {
	if m := redirectRe.FindStringSubmatch(expanded); m != nil {
		if e.cfg.Capture.Redirects {
			emit(models.Entry{Word: title, Redirect: strings.TrimSpace(m[1])})
		}
		return
	}

	w := &walker{e: e, title: title}
	for _, m := range categoryRe.FindAllStringSubmatch(expanded, -1) {
		cat := strings.TrimSpace(m[1])
		w.categories = append(w.categories, cat)
		if e.catMembers[cat] == nil {
			e.catMembers[cat] = make(map[string]bool)
		}
		e.catMembers[cat][title] = true
	}

	for _, line := range strings.Split(expanded, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			w.bodyLine(line)
			continue
		}
		w.heading(len(m[1]), strings.TrimSpace(m[2]), emit)
	}
	w.flush(emit)
}

func (w *walker) heading(level int, heading string, emit Emit) {
	e := w.e

	if level == 2 {
		w.flush(emit)
		w.lang = heading
		w.selected = e.cfg.Selected == nil || e.cfg.Selected[heading]
		w.sec = secNone
		w.ety = ""
		w.pron = nil
		e.cfg.Counters.CountLanguage(heading)
		return
	}
	if !w.selected || w.lang == "" {
		return
	}

	if level == 3 {
		e.cfg.Counters.CountSection(heading)
	} else {
		e.cfg.Counters.CountSubsection(heading)
	}
	e.headingSamples.Add(heading, w.title)

	switch {
	case posHeadings[heading]:
		w.flush(emit)
		w.entry = &models.Entry{Word: w.title, Lang: w.lang, Pos: strings.ToLower(heading)}
		w.sec = secSenses
		e.fieldTotals.Add(w.lang, "pos", w.entry.Pos)
	case heading == "Translations":
		w.sec = secTranslations
	case heading == "Pronunciation":
		w.sec = secPronunciation
	case strings.HasPrefix(heading, "Etymology"):
		w.sec = secEtymology
	case linkageHeadings[heading] != "":
		w.sec = secLinkage
		w.relation = linkageHeadings[heading]
	case inflectionHeadings[heading]:
		w.sec = secInflection
	case compoundHeadings[heading]:
		w.sec = secCompounds
	default:
		w.sec = secNone
	}
}

// flush emits the current entry if it carries any extracted content.
func (w *walker) flush(emit Emit) {
	entry := w.entry
	w.entry = nil
	if entry == nil {
		return
	}

	entry.Etymology = w.ety
	entry.Pronunciations = w.pron
	if len(entry.Senses) == 0 && len(entry.Translations) == 0 &&
		len(entry.Linkages) == 0 && len(entry.Inflections) == 0 &&
		len(entry.Compounds) == 0 {
		return
	}
	entry.Categories = w.categories
	emit(*entry)
}

// bodyLine routes one non-heading line according to the active section and
// the capture switches.
func (w *walker) bodyLine(line string) {
	if !w.selected || w.lang == "" {
		return
	}
	capture := w.e.cfg.Capture

	// Language-scope sections first: these run whether or not an entry is
	// open yet.
	switch w.sec {
	case secEtymology:
		if !capture.Etymologies {
			return
		}
		if t := cleanLine(line); t != "" {
			if w.ety != "" {
				w.ety += " "
			}
			w.ety += t
		}
		return

	case secPronunciation:
		if !capture.Pronunciations {
			return
		}
		if body, ok := strings.CutPrefix(line, "* "); ok {
			if p := cleanLine(body); p != "" {
				w.pron = append(w.pron, p)
			}
		}
		return
	}

	entry := w.entry
	if entry == nil {
		return
	}

	switch w.sec {
	case secSenses:
		switch {
		case strings.HasPrefix(line, "#:"), strings.HasPrefix(line, "#*"):
			if capture.Examples && len(entry.Senses) > 0 {
				if ex := cleanLine(line[2:]); ex != "" {
					last := &entry.Senses[len(entry.Senses)-1]
					last.Examples = append(last.Examples, ex)
				}
			}
		case strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##"):
			if gloss := cleanLine(line[1:]); gloss != "" {
				entry.Senses = append(entry.Senses, models.Sense{Glosses: []string{gloss}})
				w.e.fieldTotals.Add(entry.Lang, "gloss_words", wordBucket(gloss))
			}
		}

	case secTranslations:
		if !capture.Translations {
			return
		}
		body, ok := strings.CutPrefix(line, "* ")
		if !ok {
			return
		}
		tlang, word, found := strings.Cut(body, ":")
		if !found {
			return
		}
		if wd := cleanLine(word); wd != "" {
			entry.Translations = append(entry.Translations,
				models.Translation{Lang: strings.TrimSpace(tlang), Word: wd})
		}

	case secLinkage:
		if !capture.Linkages {
			return
		}
		if body, ok := strings.CutPrefix(line, "* "); ok {
			if wd := cleanLine(body); wd != "" {
				entry.Linkages = append(entry.Linkages,
					models.Linkage{Relation: w.relation, Word: wd})
			}
		}

	case secInflection:
		if !capture.Inflections {
			return
		}
		if body, ok := strings.CutPrefix(line, "* "); ok {
			if f := cleanLine(body); f != "" {
				entry.Inflections = append(entry.Inflections, f)
			}
		}

	case secCompounds:
		if !capture.Compounds {
			return
		}
		if body, ok := strings.CutPrefix(line, "* "); ok {
			if c := cleanLine(body); c != "" {
				entry.Compounds = append(entry.Compounds, c)
			}
		}
	}
}

// cleanLine strips residual wiki markup from a body line.
func cleanLine(s string) string {
	s = wikiLinkRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "'''", "")
	s = strings.ReplaceAll(s, "''", "")
	return strings.TrimSpace(s)
}

// wordBucket groups gloss lengths for the field-value aggregate.
func wordBucket(gloss string) string {
	n := len(strings.Fields(gloss))
	switch {
	case n <= 3:
		return "short"
	case n <= 10:
		return "medium"
	default:
		return "long"
	}
}
