package switcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scenewatch/scenewatch/internal/config"
	"github.com/scenewatch/scenewatch/internal/rules"
	"github.com/scenewatch/scenewatch/internal/window"
)

type scriptedSource struct {
	ticks [][]window.FocusSample
	errs  []error
	idx   int
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Sample() ([]window.FocusSample, error) {
	if s.idx >= len(s.ticks) {
		return nil, nil
	}
	samples := s.ticks[s.idx]
	var err error
	if s.idx < len(s.errs) {
		err = s.errs[s.idx]
	}
	s.idx++
	return samples, err
}

func (s *scriptedSource) Close() error { return nil }

type recordingClient struct {
	calls []string
	fail  map[string]error
}

func (c *recordingClient) SetScene(ctx context.Context, scene string) error {
	c.calls = append(c.calls, scene)
	if err, ok := c.fail[scene]; ok {
		return err
	}
	return nil
}

func resolverFixture(t *testing.T) *rules.Resolver {
	t.Helper()
	registry, err := rules.NewRegistry([]config.Application{
		{Name: "Google Meet", Patterns: []string{`meet\.google\.com/[a-z|-]+`}},
	}, false)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return rules.NewResolver(registry, []config.MonitorScene{{Monitor: 0, Scene: "Scene A"}})
}

func TestEngineScenario(t *testing.T) {
	source := &scriptedSource{ticks: [][]window.FocusSample{
		{{Monitor: 0, Title: "meet.google.com/abc-def - Google Chrome"}}, // switch
		{{Monitor: 0, Title: "meet.google.com/abc-def - Google Chrome"}}, // identical: no-op
		{{Monitor: 0, Title: "Inbox - Gmail"}},                          // no match: no switch away
		{{Monitor: 0, Title: "Zoom Meeting"}},                           // unconfigured app: no-op
	}}
	client := &recordingClient{}
	engine := New(source, client, resolverFixture(t), time.Second)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		engine.Tick(ctx)
	}

	if len(client.calls) != 1 || client.calls[0] != "Scene A" {
		t.Fatalf("expected exactly one switch to Scene A, got %v", client.calls)
	}
	if got := engine.Status().Scenes[0]; got != "Scene A" {
		t.Fatalf("expected monitor 0 to track Scene A, got %q", got)
	}
}

func TestEngineFailedCommandRetriesNextTick(t *testing.T) {
	sample := []window.FocusSample{{Monitor: 0, Title: "meet.google.com/abc-def"}}
	source := &scriptedSource{ticks: [][]window.FocusSample{sample, sample, sample}}
	client := &recordingClient{fail: map[string]error{"Scene A": errors.New("socket closed")}}
	engine := New(source, client, resolverFixture(t), time.Second)

	ctx := context.Background()
	engine.Tick(ctx)
	engine.Tick(ctx)

	// Both ticks must attempt the switch: failure does not advance state.
	if len(client.calls) != 2 {
		t.Fatalf("expected a retry after failure, got calls %v", client.calls)
	}
	if got, ok := engine.Status().Scenes[0]; ok {
		t.Fatalf("failed switch must not advance state, got %q", got)
	}

	// Once the command succeeds the state advances and debounce resumes.
	client.fail = nil
	engine.Tick(ctx)
	if len(client.calls) != 3 {
		t.Fatalf("expected third attempt, got %v", client.calls)
	}
	if got := engine.Status().Scenes[0]; got != "Scene A" {
		t.Fatalf("expected state to advance after success, got %q", got)
	}
}

func TestEngineObservationFailureSkipsTick(t *testing.T) {
	sample := []window.FocusSample{{Monitor: 0, Title: "meet.google.com/abc-def"}}
	source := &scriptedSource{
		ticks: [][]window.FocusSample{nil, sample},
		errs:  []error{errors.New("transient query failure"), nil},
	}
	client := &recordingClient{}
	engine := New(source, client, resolverFixture(t), time.Second)

	ctx := context.Background()
	engine.Tick(ctx)
	if len(client.calls) != 0 {
		t.Fatalf("failed observation must not dispatch, got %v", client.calls)
	}

	engine.Tick(ctx)
	if len(client.calls) != 1 {
		t.Fatalf("loop must continue after an observation failure, got %v", client.calls)
	}
}

func TestEngineNoFocusedWindow(t *testing.T) {
	source := &scriptedSource{ticks: [][]window.FocusSample{
		{{Monitor: window.MonitorUnknown, Title: ""}},
	}}
	client := &recordingClient{}
	engine := New(source, client, resolverFixture(t), time.Second)

	engine.Tick(context.Background())
	if len(client.calls) != 0 {
		t.Fatalf("empty title must fail all patterns, got %v", client.calls)
	}
}

func TestEnginePublishesSwitchEvents(t *testing.T) {
	source := &scriptedSource{ticks: [][]window.FocusSample{
		{{Monitor: 0, Title: "meet.google.com/abc-def"}},
	}}
	client := &recordingClient{}
	engine := New(source, client, resolverFixture(t), time.Second)

	events := engine.Subscribe()
	defer engine.Unsubscribe(events)

	engine.Tick(context.Background())

	select {
	case event := <-events:
		if !event.Success || event.Scene != "Scene A" || event.Application != "Google Meet" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a switch event")
	}
}

func TestEngineUpdateRules(t *testing.T) {
	source := &scriptedSource{ticks: [][]window.FocusSample{
		{{Monitor: 0, Title: "Jitsi Meet - standup"}},
		{{Monitor: 0, Title: "Jitsi Meet - standup"}},
	}}
	client := &recordingClient{}
	engine := New(source, client, resolverFixture(t), time.Second)

	ctx := context.Background()
	engine.Tick(ctx)
	if len(client.calls) != 0 {
		t.Fatalf("title should not match the initial rules, got %v", client.calls)
	}

	registry, err := rules.NewRegistry([]config.Application{
		{Name: "Jitsi", Patterns: []string{"Jitsi Meet"}},
	}, false)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	engine.UpdateRules(rules.NewResolver(registry, []config.MonitorScene{{Monitor: 0, Scene: "Scene B"}}))

	engine.Tick(ctx)
	if len(client.calls) != 1 || client.calls[0] != "Scene B" {
		t.Fatalf("expected reloaded rules to take effect, got %v", client.calls)
	}
}
