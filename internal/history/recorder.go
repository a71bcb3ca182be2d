package history

import (
	"context"

	"github.com/scenewatch/scenewatch/internal/logger"
	"github.com/scenewatch/scenewatch/internal/switcher"
)

// Record drains switch events from the engine subscription into the store
// until ctx is cancelled or the channel closes. Storage failures are
// logged and skipped; history never interferes with switching.
func Record(ctx context.Context, store *Store, events <-chan switcher.SwitchEvent) {
	log := logger.WithComponent("history")
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			rec := &SwitchRecord{
				Timestamp:   event.At,
				Monitor:     event.Monitor,
				Application: event.Application,
				WindowTitle: event.Title,
				Scene:       event.Scene,
				Success:     event.Success,
				Detail:      event.Detail,
			}
			if err := store.Record(rec); err != nil {
				log.Warn().Err(err).Msg("Failed to record switch event")
			}
		}
	}
}
