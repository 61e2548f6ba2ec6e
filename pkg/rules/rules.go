// Package rules holds the migration rules and the ordered catalogue the
// pipeline applies them from.
package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// ErrUnknownRule is returned when a selected rule name is not in the catalogue.
var ErrUnknownRule = errors.New("unknown rule")

// All returns every rule in the order they are applied to a file.
func All() []*transform.Plugin {
	return []*transform.Plugin{
		VueRouterV4(),
		VuexV4(),
		VuexCreateLogger(),
	}
}

// Select returns the named rules in catalogue order. No names selects all.
func Select(names []string) ([]*transform.Plugin, error) {
	all := All()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		wanted[name] = true
	}

	selected := make([]*transform.Plugin, 0, len(wanted))

	for _, rule := range all {
		if wanted[rule.Name()] {
			selected = append(selected, rule)
			delete(wanted, rule.Name())
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}

		slices.Sort(unknown)

		known := make([]string, len(all))
		for i, rule := range all {
			known[i] = rule.Name()
		}

		for i, name := range unknown {
			if hint, ok := suggest(name, known); ok {
				unknown[i] = fmt.Sprintf("%s (did you mean %s?)", name, hint)
			}
		}

		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, strings.Join(unknown, ", "))
	}

	return selected, nil
}
