package models

// PageRecord is one page as produced by the dump reader or the cache reader.
// It is immutable and consumed exactly once by the classifier.
type PageRecord struct {
	Model string // content model or namespace hint, e.g. "wikitext"
	Title string
	Text  string // raw wikitext of the latest revision
}
