package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Publish(JobEvent{Job: model.MatchingJob{ID: "j1"}, Transition: "queued"})

	select {
	case ev := <-sub:
		je, ok := ev.(JobEvent)
		require.True(t, ok)
		assert.Equal(t, "j1", je.Job.ID)
		assert.Equal(t, "queued", je.Transition)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()

	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(ProposalEvent{EventID: "e1", Version: 2, Action: "finalized"})

	for _, sub := range []<-chan Event{a, b} {
		select {
		case ev := <-sub:
			pe, ok := ev.(ProposalEvent)
			require.True(t, ok)
			assert.Equal(t, 2, pe.Version)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)

	// publishing after unsubscribe must not panic
	bus.Publish(JobEvent{Transition: "running"})
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := New()
	defer bus.Close()

	_ = bus.Subscribe() // never drained
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(JobEvent{Transition: "running"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()

	sub := bus.Subscribe()
	_, open := <-sub
	assert.False(t, open)
}
