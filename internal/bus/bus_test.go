package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"clipline/internal/logger"
)

func TestPublishInvokesAllSubscribersInOrder(t *testing.T) {
	b := New(logger.Nop())

	var order []string
	b.Subscribe(TopicCaptureStarted, func(topic string, payload Payload) {
		order = append(order, "first")
	})
	b.Subscribe(TopicCaptureStarted, func(topic string, payload Payload) {
		order = append(order, "second")
	})
	b.Subscribe(TopicCaptureStarted, func(topic string, payload Payload) {
		order = append(order, "third")
	})

	b.Publish(TopicCaptureStarted, Payload{"session_id": "S1"})
	require.Equal(t, []string{"first", "second", "third"}, order)

	// Same relative order on a second publish.
	order = order[:0]
	b.Publish(TopicCaptureStarted, Payload{"session_id": "S2"})
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestPanickingSubscriberDoesNotBreakOthers(t *testing.T) {
	b := New(logger.Nop())

	var hits int
	b.Subscribe(TopicMuxDone, func(topic string, payload Payload) { hits++ })
	b.Subscribe(TopicMuxDone, func(topic string, payload Payload) { panic("bad handler") })
	b.Subscribe(TopicMuxDone, func(topic string, payload Payload) { hits++ })

	require.NotPanics(t, func() {
		b.Publish(TopicMuxDone, Payload{})
	})
	require.Equal(t, 2, hits)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := New(logger.Nop())
	require.NotPanics(t, func() {
		b.Publish(TopicUploadDone, Payload{"session_id": "S1"})
	})
}

func TestHandlerReceivesTopicAndPayload(t *testing.T) {
	b := New(logger.Nop())

	var gotTopic string
	var gotPayload Payload
	b.Subscribe(TopicManifestUpdated, func(topic string, payload Payload) {
		gotTopic = topic
		gotPayload = payload
	})

	b.Publish(TopicManifestUpdated, Payload{"session_id": "S1", "event": "capture.started"})
	require.Equal(t, TopicManifestUpdated, gotTopic)
	require.Equal(t, "S1", gotPayload["session_id"])
	require.Equal(t, "capture.started", gotPayload["event"])
}

func TestHandlerMayReenterBus(t *testing.T) {
	b := New(logger.Nop())

	var chained bool
	b.Subscribe(TopicCaptureStarted, func(topic string, payload Payload) {
		b.Publish(TopicUserNotification, payload)
	})
	b.Subscribe(TopicUserNotification, func(topic string, payload Payload) {
		chained = true
	})

	b.Publish(TopicCaptureStarted, Payload{})
	require.True(t, chained)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New(logger.Nop())

	var mu sync.Mutex
	count := 0
	b.Subscribe(TopicMuxProgress, func(topic string, payload Payload) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Publish(TopicMuxProgress, Payload{})
		}()
		go func() {
			defer wg.Done()
			b.Subscribe(TopicColorDone, func(string, Payload) {})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 8, count)
}
