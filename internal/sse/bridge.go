package sse

import (
	"github.com/starford/dailycanvas/internal/eventbus"
	"github.com/starford/dailycanvas/internal/index"
	"github.com/starford/dailycanvas/internal/workspace"
)

type itemData struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Canvas string `json:"canvas,omitempty"`
}

// Bridge forwards every EventBus event to b and returns the unsubscribe
// function. Item payloads are reduced to their identity; resource changes
// go through the throttled resource path.
func Bridge(bus *eventbus.Bus, b *Broker) func() {
	return bus.SubscribeAll(func(ev eventbus.Event) {
		switch p := ev.Payload.(type) {
		case index.Change:
			b.PublishResourceEvent(p.Kind, p.Path, p.RotationKey)
		case *workspace.Item:
			b.Publish(Event{Type: string(ev.Topic), Data: toItemData(p)})
		case []*workspace.Item:
			items := make([]itemData, 0, len(p))
			for _, it := range p {
				items = append(items, toItemData(it))
			}
			b.Publish(Event{Type: string(ev.Topic), Data: items})
		default:
			b.Publish(Event{Type: string(ev.Topic), Data: p})
		}
	})
}

func toItemData(it *workspace.Item) itemData {
	d := itemData{ID: it.ID, Kind: it.Kind}
	if c := it.Canvas(); c != nil {
		d.Canvas = c.Path
	}
	return d
}
