package eventbus

import "testing"

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	b := New()
	var got []Topic
	b.Subscribe(ItemAdded, func(ev Event) { got = append(got, ev.Topic) })
	b.Subscribe(SettingsChanged, func(ev Event) { t.Errorf("unexpected delivery of %s", ev.Topic) })

	b.Publish(Event{Topic: ItemAdded, Payload: "n1"})

	if len(got) != 1 || got[0] != ItemAdded {
		t.Fatalf("got %v", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New()
	n := 0
	b.SubscribeAll(func(Event) { n++ })
	b.Publish(Event{Topic: ItemAdded})
	b.Publish(Event{Topic: RotationCreated})
	if n != 2 {
		t.Errorf("wildcard deliveries = %d, want 2", n)
	}
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	b := New()
	calls := 0
	var unsub func()
	unsub = b.Subscribe(ItemAdded, func(Event) {
		calls++
		unsub()
	})

	b.Publish(Event{Topic: ItemAdded})
	b.Publish(Event{Topic: ItemAdded})

	if calls != 1 {
		t.Errorf("one-shot handler ran %d times", calls)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d after unsubscribe", b.Len())
	}
	// Second call is a no-op.
	unsub()
}

func TestUnsubscribeOtherDuringDelivery(t *testing.T) {
	b := New()
	var second func()
	b.Subscribe(ItemAdded, func(Event) { second() })
	ran := false
	second = b.Subscribe(ItemAdded, func(Event) { ran = true })

	b.Publish(Event{Topic: ItemAdded})
	if ran {
		t.Error("handler removed mid-delivery should not run")
	}
}
