package app

import (
	"fmt"
	"sort"
	"strings"
)

var builtinApps = []string{"wc", "grep", "vertex-degree"}

// Registry holds the application names workers know how to run. Submissions
// naming anything else are rejected before a job is created.
type Registry struct {
	names map[string]struct{}
}

func NewRegistry(extra ...string) Registry {
	registry := Registry{names: make(map[string]struct{})}
	for _, name := range builtinApps {
		registry.names[name] = struct{}{}
	}

	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name != "" {
			registry.names[name] = struct{}{}
		}
	}

	return registry
}

func (registry Registry) Named(name string) error {
	if _, ok := registry.names[name]; !ok {
		return fmt.Errorf("no app named `%v` found", name)
	}

	return nil
}

func (registry Registry) Names() []string {
	names := make([]string, 0, len(registry.names))
	for name := range registry.names {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// ParseList splits a comma separated flag value into app names.
func ParseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	return strings.Split(value, ",")
}
