// Package rules resolves focus samples against the configured application
// patterns and monitor scene bindings.
package rules

import (
	"fmt"
	"regexp"

	"github.com/scenewatch/scenewatch/internal/config"
)

// Application is a named, ordered set of compiled title patterns.
type Application struct {
	Name     string
	patterns []*regexp.Regexp
}

// Registry holds applications in declaration order. Patterns are compiled
// once at load and reused on every match.
type Registry struct {
	apps []*Application
}

// NewRegistry compiles the configured applications. Any pattern that fails
// to compile makes the whole load fail.
func NewRegistry(apps []config.Application, ignoreCase bool) (*Registry, error) {
	if len(apps) == 0 {
		return nil, config.ErrNoApplications
	}
	r := &Registry{apps: make([]*Application, 0, len(apps))}
	for _, app := range apps {
		compiled := &Application{Name: app.Name}
		for _, pattern := range app.Patterns {
			expr := pattern
			if ignoreCase {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("application %q: pattern %q: %w", app.Name, pattern, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		r.apps = append(r.apps, compiled)
	}
	return r, nil
}

// Match returns the first application, in declaration order, with a pattern
// found anywhere in title, or nil when nothing matches. An empty title
// matches nothing.
func (r *Registry) Match(title string) *Application {
	if title == "" {
		return nil
	}
	for _, app := range r.apps {
		for _, re := range app.patterns {
			if re.MatchString(title) {
				return app
			}
		}
	}
	return nil
}

// MatchResult is the outcome of resolving one focus sample. App is nil when
// no application matched; Scene is empty when the sample's monitor has no
// binding, which downstream treats as a no-op rather than an error.
type MatchResult struct {
	App   *Application
	Scene string
}

// Resolver combines the pattern registry with the monitor scene bindings.
type Resolver struct {
	registry *Registry
	scenes   map[int]string
}

// NewResolver builds a resolver over a validated configuration. Bindings
// were already checked for duplicate monitors by config.Validate.
func NewResolver(registry *Registry, bindings []config.MonitorScene) *Resolver {
	scenes := make(map[int]string, len(bindings))
	for _, b := range bindings {
		scenes[b.Monitor] = b.Scene
	}
	return &Resolver{registry: registry, scenes: scenes}
}

// Resolve matches title against the registry and, on a match, looks up the
// scene bound to monitor. A matched application on an unbound monitor
// yields a result with App set and Scene empty.
func (r *Resolver) Resolve(monitor int, title string) MatchResult {
	app := r.registry.Match(title)
	if app == nil {
		return MatchResult{}
	}
	return MatchResult{App: app, Scene: r.scenes[monitor]}
}

// SceneFor returns the scene bound to monitor, if any.
func (r *Resolver) SceneFor(monitor int) (string, bool) {
	scene, ok := r.scenes[monitor]
	return scene, ok
}

// Scenes returns the distinct configured scene names in binding order.
func Scenes(bindings []config.MonitorScene) []string {
	seen := make(map[string]struct{}, len(bindings))
	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if _, dup := seen[b.Scene]; dup {
			continue
		}
		seen[b.Scene] = struct{}{}
		out = append(out, b.Scene)
	}
	return out
}
