package models

// Entry is one extracted dictionary record. The writer treats it as an
// opaque JSON document; only the engine assigns meaning to its fields.
type Entry struct {
	Word string `json:"word"`
	Lang string `json:"lang"`
	Pos  string `json:"pos,omitempty"`

	Senses         []Sense       `json:"senses,omitempty"`
	Translations   []Translation `json:"translations,omitempty"`
	Pronunciations []string      `json:"sounds,omitempty"`
	Etymology      string        `json:"etymology_text,omitempty"`
	Inflections    []string      `json:"forms,omitempty"`
	Linkages       []Linkage     `json:"related,omitempty"`
	Compounds      []string      `json:"compounds,omitempty"`
	Redirect       string        `json:"redirect,omitempty"`
	Categories     []string      `json:"categories,omitempty"`
}

// Sense is one numbered definition under a part-of-speech section.
type Sense struct {
	Glosses  []string `json:"glosses"`
	Examples []string `json:"examples,omitempty"`
}

// Translation is one target-language rendering of the headword.
type Translation struct {
	Lang string `json:"lang"`
	Word string `json:"word"`
}

// Linkage is one semantic relation (synonym, antonym, ...) to another word.
type Linkage struct {
	Relation string `json:"relation"`
	Word     string `json:"word"`
}
