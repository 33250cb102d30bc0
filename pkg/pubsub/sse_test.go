package pubsub

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func publishSelections(t *testing.T, pub *SSEPublisher, topic string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := pub.Publish(topic, EventSelection, map[string]int{"step": i}); err != nil {
			t.Fatalf("Failed to publish selection %d: %v", i, err)
		}
	}
}

func expectVersion(t *testing.T, sub Subscription, want int) {
	t.Helper()
	select {
	case event := <-sub.Events():
		if event.Version != want {
			t.Errorf("Expected version %d, got %d", want, event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("Timeout waiting for version %d", want)
	}
}

func expectNothing(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestViewStatusReplaysBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicViewStatus, TopicConfig{BufferSize: 3, ReplayAll: true})
	publishSelections(t, pub, TopicViewStatus, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicViewStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5
	for v := 3; v <= 5; v++ {
		expectVersion(t, sub, v)
	}
	expectNothing(t, sub)
}

func TestSessionTopicsUsePrefixConfig(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigurePrefix("session:", TopicConfig{BufferSize: 5, ReplayAll: false})
	topic := ViewTopic("abc")
	publishSelections(t, pub, topic, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Latest selection only
	expectVersion(t, sub, 3)
	expectNothing(t, sub)
}

func TestExactConfigWinsOverPrefix(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigurePrefix("session:", TopicConfig{BufferSize: 5, ReplayAll: true})
	pub.ConfigureTopic(ViewTopic("quiet"), TopicConfig{})
	publishSelections(t, pub, ViewTopic("quiet"), 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, ViewTopic("quiet"))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()
	expectNothing(t, sub)
}

func TestNoBufferDeliversLiveEvents(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishSelections(t, pub, "unconfigured", 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "unconfigured")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()
	expectNothing(t, sub)

	if err := pub.Publish("unconfigured", EventReloaded, nil); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	expectVersion(t, sub, 4)
}

func TestForgetDropsBufferAndVersion(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigurePrefix("session:", TopicConfig{BufferSize: 5, ReplayAll: true})
	topic := ViewTopic("gone")
	publishSelections(t, pub, topic, 2)
	pub.Forget(topic)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()
	expectNothing(t, sub)

	publishSelections(t, pub, topic, 1)
	expectVersion(t, sub, 1)
}

func TestSubscribeAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	pub.Close()

	if _, err := pub.Subscribe(context.Background(), TopicViewStatus); err == nil {
		t.Error("Expected error subscribing to a closed publisher")
	}
	if err := pub.Publish(TopicViewStatus, EventOpened, nil); err == nil {
		t.Error("Expected error publishing to a closed publisher")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSSE(&buf, Event{Topic: ViewTopic("s1"), Type: EventOpened, Data: []byte(`{"nodes":2}`), Version: 7})
	if err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: session:s1/7\ndata: ") {
		t.Errorf("Unexpected frame header: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Frame not terminated: %q", out)
	}
	if !strings.Contains(out, `"type":"opened"`) {
		t.Errorf("Frame missing event type: %q", out)
	}
}
