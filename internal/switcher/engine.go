package switcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scenewatch/scenewatch/internal/logger"
	"github.com/scenewatch/scenewatch/internal/rules"
	"github.com/scenewatch/scenewatch/internal/window"
)

// SceneClient issues scene-switch commands to the remote endpoint. The
// client owns connection recovery; the engine never retries within a tick.
type SceneClient interface {
	SetScene(ctx context.Context, scene string) error
}

// SwitchEvent describes one attempted scene switch.
type SwitchEvent struct {
	Monitor     int       `json:"monitor"`
	Scene       string    `json:"scene"`
	Application string    `json:"application"`
	Title       string    `json:"title"`
	Success     bool      `json:"success"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

// Status is a point-in-time snapshot for the status API.
type Status struct {
	Scenes     map[int]string      `json:"scenes"`
	LastSample *window.FocusSample `json:"last_sample,omitempty"`
	LastSwitch *SwitchEvent        `json:"last_switch,omitempty"`
}

// Engine runs the poll loop: each tick samples the focus source, resolves
// the sample against the rules, asks the tracker whether a switch is due,
// and dispatches at most one command per sample. Ticks never overlap; the
// command send is awaited before the next sample is considered, so
// switches are issued in observation order.
type Engine struct {
	source   window.Source
	client   SceneClient
	interval time.Duration
	log      *zerolog.Logger

	tracker *Tracker

	// mu guards the resolver swap, the status snapshot, and the listener
	// list. Scene state itself is only written inside a tick.
	mu         sync.RWMutex
	resolver   *rules.Resolver
	lastSample *window.FocusSample
	lastSwitch *SwitchEvent
	listeners  []chan SwitchEvent
}

// New creates an engine. Run starts it.
func New(source window.Source, client SceneClient, resolver *rules.Resolver, interval time.Duration) *Engine {
	return &Engine{
		source:   source,
		client:   client,
		resolver: resolver,
		interval: interval,
		tracker:  NewTracker(),
		log:      logger.WithComponent("switcher"),
	}
}

// Run polls until ctx is cancelled. Steady-state errors are logged and
// isolated to their tick; Run only returns on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().
		Str("source", e.source.Name()).
		Dur("interval", e.interval).
		Msg("Starting focus poll loop")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("Poll loop stopped")
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one poll cycle. Exposed so callers can drive the engine from
// their own scheduler.
func (e *Engine) Tick(ctx context.Context) {
	samples, err := e.source.Sample()
	if err != nil {
		e.log.Warn().Err(err).Msg("Focus observation failed, skipping tick")
		return
	}

	for i := range samples {
		sample := samples[i]

		e.mu.Lock()
		e.lastSample = &sample
		resolver := e.resolver
		e.mu.Unlock()

		result := resolver.Resolve(sample.Monitor, sample.Title)
		scene, due := e.tracker.Consider(sample.Monitor, result)
		if !due {
			continue
		}

		event := SwitchEvent{
			Monitor:     sample.Monitor,
			Scene:       scene,
			Application: result.App.Name,
			Title:       sample.Title,
			At:          time.Now(),
		}

		if err := e.client.SetScene(ctx, scene); err != nil {
			// State stays put; the same match retries next tick.
			event.Detail = err.Error()
			e.log.Error().
				Err(err).
				Int("monitor", sample.Monitor).
				Str("scene", scene).
				Msg("Scene switch failed")
		} else {
			event.Success = true
			e.mu.Lock()
			e.tracker.Commit(sample.Monitor, scene)
			e.lastSwitch = &event
			e.mu.Unlock()
			e.log.Info().
				Int("monitor", sample.Monitor).
				Str("scene", scene).
				Str("application", result.App.Name).
				Msg("Switched scene")
		}

		e.publish(event)
	}
}

// UpdateRules swaps in a freshly compiled resolver, e.g. after a config
// reload. Debounce state is kept; a binding change takes effect on the
// next differing match.
func (e *Engine) UpdateRules(resolver *rules.Resolver) {
	e.mu.Lock()
	e.resolver = resolver
	e.mu.Unlock()
	e.log.Info().Msg("Rules updated")
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		Scenes:     e.tracker.Current(),
		LastSample: e.lastSample,
		LastSwitch: e.lastSwitch,
	}
}

// Subscribe adds a listener for switch events
func (e *Engine) Subscribe() chan SwitchEvent {
	ch := make(chan SwitchEvent, 16)
	e.mu.Lock()
	e.listeners = append(e.listeners, ch)
	e.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener
func (e *Engine) Unsubscribe(ch chan SwitchEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, listener := range e.listeners {
		if listener == ch {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// publish notifies all listeners of a switch attempt.
func (e *Engine) publish(event SwitchEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, listener := range e.listeners {
		select {
		case listener <- event:
		default:
			// Skip if channel is full
		}
	}
}
