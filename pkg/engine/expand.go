package engine

import (
	"fmt"
	"regexp"
	"strings"
)

const maxExpandDepth = 20

var (
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Innermost template invocations only; outer ones are reached by
	// re-running until the text stops changing.
	templateRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

	// {{{1}}}, {{{name}}}, {{{1|default}}}
	paramRe = regexp.MustCompile(`\{\{\{([^{}|]+)(?:\|([^{}]*))?\}\}\}`)
)

// Expand runs phase 1 over one page's wikitext: comments are stripped and
// template invocations are substituted innermost-first, override content
// taking precedence over dump content. Never fatal; problems are recorded
// in the issue collections and the text is returned best-effort.
func (e *Engine) Expand(title, text string) string {
	text = commentRe.ReplaceAllString(text, "")
	return e.expandTemplates(title, text, 0)
}

func (e *Engine) expandTemplates(title, text string, depth int) string {
	if depth >= maxExpandDepth {
		e.cfg.Issues.AddError(title, "template expansion exceeded depth limit, possible recursion")
		return text
	}

	changed := false
	out := templateRe.ReplaceAllStringFunc(text, func(m string) string {
		if cached, ok := e.expansions.Get(m); ok {
			changed = true
			return cached
		}

		fields := splitInvocation(m[2 : len(m)-2])
		name := templateName(fields[0])

		body, ok := e.resolvePage(name)
		if !ok {
			e.cfg.Issues.AddDebug(title, fmt.Sprintf("unknown template %s", name))
			// Render the arguments so the entry text survives without
			// the unexpandable wrapper. Still a change: an enclosing
			// invocation may now be innermost.
			changed = true
			return strings.Join(fields[1:], " ")
		}

		expanded := substituteParams(body, fields[1:])
		e.expansions.Add(m, expanded)
		changed = true
		return expanded
	})

	if changed {
		return e.expandTemplates(title, out, depth+1)
	}
	return out
}

// splitInvocation splits "name|a|k=v" on top-level pipes. Nested templates
// are already gone by the time this runs (innermost-first), so a plain
// split suffices except for wiki links.
func splitInvocation(s string) []string {
	var fields []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "[["):
			depth++
			i++
		case strings.HasPrefix(s[i:], "]]"):
			if depth > 0 {
				depth--
			}
			i++
		case s[i] == '|' && depth == 0:
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	return append(fields, s[start:])
}

// templateName canonicalizes the first invocation field to a page title in
// the Template namespace.
func templateName(raw string) string {
	name := strings.TrimSpace(raw)
	if strings.Contains(name, ":") {
		return name // already namespaced, e.g. "Module:languages"
	}
	return "Template:" + name
}

// substituteParams replaces {{{n}}} and {{{name}}} placeholders in a
// template body with the invocation arguments.
func substituteParams(body string, args []string) string {
	positional := make([]string, 0, len(args))
	named := make(map[string]string)
	for _, a := range args {
		if eq := strings.Index(a, "="); eq >= 0 {
			named[strings.TrimSpace(a[:eq])] = strings.TrimSpace(a[eq+1:])
			continue
		}
		positional = append(positional, strings.TrimSpace(a))
	}

	return paramRe.ReplaceAllStringFunc(body, func(m string) string {
		sub := paramRe.FindStringSubmatch(m)
		key, def := strings.TrimSpace(sub[1]), sub[2]

		if v, ok := named[key]; ok {
			return v
		}
		var idx int
		if _, err := fmt.Sscanf(key, "%d", &idx); err == nil && idx >= 1 && idx <= len(positional) {
			return positional[idx-1]
		}
		return def
	})
}
