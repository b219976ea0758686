package eventbus

import (
	"testing"
	"time"
)

func TestEventBus_PublishAndSubscribe(t *testing.T) {
	bus := New()
	ch, cancel := bus.Subscribe("chat.answered")
	defer cancel()

	bus.Publish("chat.answered", "hello")

	select {
	case evt := <-ch:
		if evt.Topic != "chat.answered" {
			t.Errorf("expected topic 'chat.answered', got %q", evt.Topic)
		}
		if evt.Payload != "hello" {
			t.Errorf("expected payload 'hello', got %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout: expected event to be received within 100ms")
	}
}

func TestEventBus_MultipleSubscribers_AllReceive(t *testing.T) {
	bus := New()
	ch1, cancel1 := bus.Subscribe("multi.topic")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("multi.topic")
	defer cancel2()

	bus.Publish("multi.topic", 42)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Payload != 42 {
				t.Errorf("subscriber %d: expected payload 42, got %v", i, evt.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestEventBus_DifferentTopics_NoInterference(t *testing.T) {
	bus := New()
	chA, cancelA := bus.Subscribe("topic.a")
	defer cancelA()
	chB, cancelB := bus.Subscribe("topic.b")
	defer cancelB()

	bus.Publish("topic.a", "for-a")

	select {
	case evt := <-chA:
		if evt.Payload != "for-a" {
			t.Errorf("topic.a: unexpected payload %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("topic.a: timeout waiting for event")
	}

	select {
	case evt := <-chB:
		t.Errorf("topic.b: received unexpected event: %v", evt)
	default:
	}
}

func TestEventBus_NonBlockingPublish_FullBuffer(t *testing.T) {
	bus := New()
	_, cancel := bus.Subscribe("overflow.topic")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize+10; i++ {
			bus.Publish("overflow.topic", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked when buffer was full (should be non-blocking)")
	}
	if bus.Dropped() != 10 {
		t.Errorf("Dropped() = %d; want 10", bus.Dropped())
	}
}

func TestEventBus_Unsubscribe_ClosesChannel(t *testing.T) {
	bus := New()
	ch, cancel := bus.Subscribe("topic")
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	// Publishing with no subscribers must not panic.
	bus.Publish("topic", 1)
}
