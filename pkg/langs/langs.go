// Package langs provides the inventory of selectable capture languages and
// validates CLI language selections against it.
package langs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	once  sync.Once
	names []string
	index map[string]bool
)

func build() {
	all := lingua.AllLanguages()
	names = make([]string, 0, len(all))
	index = make(map[string]bool, len(all))
	for _, l := range all {
		n := l.String()
		names = append(names, n)
		index[n] = true
	}
	sort.Strings(names)
}

// Names returns the sorted language inventory.
func Names() []string {
	once.Do(build)
	return names
}

// Valid reports whether name is a known language.
func Valid(name string) bool {
	once.Do(build)
	return index[name]
}

// Select resolves the --language/--all-languages selection into the capture
// scope. A nil map selects every language. An unknown language name is a
// configuration error; the caller exits before any page is processed.
func Select(requested []string, all bool) (map[string]bool, error) {
	if all && len(requested) > 0 {
		return nil, fmt.Errorf("--language and --all-languages are mutually exclusive")
	}
	if all || len(requested) == 0 {
		return nil, nil
	}

	sel := make(map[string]bool, len(requested))
	for _, name := range requested {
		if !Valid(name) {
			return nil, fmt.Errorf("unknown language %q (use --list-languages for the inventory)", name)
		}
		sel[name] = true
	}
	return sel, nil
}
