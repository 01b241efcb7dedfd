package service

import "testing"

func TestPublishers_FanOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	Publishers{a, b}.Publish(EventPaymentConfirmed, nil)

	if len(a.events) != 1 || len(b.events) != 1 || b.events[0] != EventPaymentConfirmed {
		t.Fatalf("fan-out failed: %v %v", a.events, b.events)
	}
}
