// Package switcher drives the poll-resolve-switch cycle and keeps the
// per-monitor scene state that suppresses redundant switch commands.
package switcher

import (
	"github.com/scenewatch/scenewatch/internal/rules"
)

// Tracker remembers the last scene successfully requested for each
// monitor. It starts empty so the first resolved match always triggers a
// switch, and it is advanced only by Commit after the command client
// reports success — a failed switch leaves it unchanged so the next tick
// retries.
//
// The tracker is owned by the engine and touched by exactly one tick at a
// time, so it needs no locking.
type Tracker struct {
	current map[int]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{current: make(map[int]string)}
}

// Consider decides whether a resolved match warrants a switch command for
// the sample's monitor. It returns the target scene and true to switch,
// or false for a no-op: no match, a match with no scene bound to the
// monitor, or a scene already active on that monitor.
//
// Absence of a match is deliberately not a trigger — the current scene is
// left untouched when the user focuses something untracked.
func (t *Tracker) Consider(monitor int, res rules.MatchResult) (string, bool) {
	if res.Scene == "" {
		return "", false
	}
	if t.current[monitor] == res.Scene {
		return "", false
	}
	return res.Scene, true
}

// Commit records that scene is now active on monitor. Called only after a
// successful switch command.
func (t *Tracker) Commit(monitor int, scene string) {
	t.current[monitor] = scene
}

// Current returns a copy of the per-monitor scene state.
func (t *Tracker) Current() map[int]string {
	out := make(map[int]string, len(t.current))
	for m, s := range t.current {
		out[m] = s
	}
	return out
}
