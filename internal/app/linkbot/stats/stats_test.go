package stats

import (
	"context"
	"testing"
	"time"
)

func TestChannelCollector_DropsWhenFull(t *testing.T) {
	c := NewChannelCollector(1)
	c.Collect(CommandEvent{Command: "info"})
	c.Collect(CommandEvent{Command: "yuan"}) // 丢弃

	if got := len(c.Events()); got != 1 {
		t.Fatalf("buffered: got %d, want %d", got, 1)
	}
	c.Close()
	c.Close()
	c.Collect(CommandEvent{Command: "decode"}) // 关闭后不 panic
}

func TestConsumer_FlushesOnClose(t *testing.T) {
	c := NewChannelCollector(10)
	var got []Summary
	consumer := NewConsumer(c).OnFlush(func(s Summary) { got = append(got, s) })

	done := make(chan struct{})
	go func() {
		consumer.Run(context.Background())
		close(done)
	}()

	c.Collect(CommandEvent{Command: "decode", Site: "cssbuy", Outcome: "resolved", HandledAt: time.Now()})
	c.Collect(CommandEvent{Command: "decode", Site: "cnfans", Outcome: "rejected", HandledAt: time.Now()})
	c.Collect(CommandEvent{Command: "info", HandledAt: time.Now()})
	c.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after collector was closed")
	}

	total := 0
	decodes := 0
	for _, s := range got {
		total += s.Events
		decodes += s.Commands["decode"]
	}
	if total != 3 {
		t.Fatalf("events: got %d, want %d", total, 3)
	}
	if decodes != 2 {
		t.Fatalf("decode events: got %d, want %d", decodes, 2)
	}
}

func TestConsumer_StopsOnContextCancel(t *testing.T) {
	c := NewChannelCollector(10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewConsumer(c).OnFlush(func(Summary) {}).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer ignored context cancellation")
	}
}

type countingCollector struct {
	events int
	closed bool
}

func (c *countingCollector) Collect(CommandEvent) { c.events++ }
func (c *countingCollector) Close()               { c.closed = true }

func TestMulti_FansOut(t *testing.T) {
	a, b := &countingCollector{}, &countingCollector{}
	m := Multi{a, b, Discard{}}

	m.Collect(CommandEvent{Command: "yupoo"})
	m.Close()

	if a.events != 1 || b.events != 1 {
		t.Fatalf("events: got %d/%d, want 1/1", a.events, b.events)
	}
	if !a.closed || !b.closed {
		t.Fatal("Close was not forwarded")
	}
}
