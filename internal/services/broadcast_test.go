package services

import "testing"

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := newBroadcaster[int]()
	first, cancelFirst := b.subscribe()
	defer cancelFirst()
	second, cancelSecond := b.subscribe()
	defer cancelSecond()

	if dropped := b.publish(7); dropped != 0 {
		t.Fatalf("Expected no dropped events, got %d", dropped)
	}

	for i, ch := range []<-chan int{first, second} {
		select {
		case v := <-ch:
			if v != 7 {
				t.Errorf("Subscriber %d: expected 7, got %d", i, v)
			}
		default:
			t.Errorf("Subscriber %d received nothing", i)
		}
	}
}

func TestBroadcaster_DropsForSlowSubscriber(t *testing.T) {
	b := newBroadcaster[int]()
	_, cancel := b.subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer; i++ {
		if dropped := b.publish(i); dropped != 0 {
			t.Fatalf("Event %d dropped before the buffer was full", i)
		}
	}
	if dropped := b.publish(-1); dropped != 1 {
		t.Errorf("Expected 1 dropped event once the buffer is full, got %d", dropped)
	}
}

func TestBroadcaster_CancelClosesAndIsIdempotent(t *testing.T) {
	b := newBroadcaster[string]()
	ch, cancel := b.subscribe()

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after cancel")
	}
	if dropped := b.publish("after"); dropped != 0 {
		t.Errorf("Cancelled subscriber should not count as dropped, got %d", dropped)
	}
}
