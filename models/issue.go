package models

// Issue records one engine-reported problem with enough context to locate
// the offending page.
type Issue struct {
	Title   string `yaml:"title" json:"title"`
	Message string `yaml:"msg" json:"msg"`
}

// IssueLog accumulates errors, warnings and debug messages raised anywhere
// in the engine. Append-only while the pipeline runs; the orchestrator
// snapshots it only after the main phase has returned, so no locking is
// needed at the single-threaded callback boundary.
type IssueLog struct {
	Errors   []Issue `yaml:"errors"`
	Warnings []Issue `yaml:"warnings"`
	Debug    []Issue `yaml:"debug"`
}

func (l *IssueLog) AddError(title, msg string) {
	l.Errors = append(l.Errors, Issue{Title: title, Message: msg})
}

func (l *IssueLog) AddWarning(title, msg string) {
	l.Warnings = append(l.Warnings, Issue{Title: title, Message: msg})
}

func (l *IssueLog) AddDebug(title, msg string) {
	l.Debug = append(l.Debug, Issue{Title: title, Message: msg})
}
