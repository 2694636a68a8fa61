package server

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recvEnvelope(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Envelope{}
	}
}

func assertNoEnvelope(t *testing.T, ch <-chan Envelope) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q: %s", ev.Event, ev.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastReachesOnlyMatchingPartition(t *testing.T) {
	r := testRegistry()

	_, chA := r.Add("1111")
	_, chB := r.Add("2222")
	_, chNone := r.Add("")

	r.Broadcast("start", eventMessage{Message: "go"}, "1111")

	ev := recvEnvelope(t, chA)
	if ev.Event != "start" {
		t.Errorf("event = %q, want start", ev.Event)
	}
	assertNoEnvelope(t, chB)
	assertNoEnvelope(t, chNone)
}

func TestBroadcastEmptyCodeIsNoOp(t *testing.T) {
	r := testRegistry()

	_, chA := r.Add("1111")
	_, chNone := r.Add("")

	r.Broadcast("start", eventMessage{Message: "go"}, "")

	assertNoEnvelope(t, chA)
	assertNoEnvelope(t, chNone)
}

func TestBroadcastAfterRemove(t *testing.T) {
	r := testRegistry()

	id, ch := r.Add("1111")
	r.Remove(id)
	r.Remove(id) // second remove is a no-op

	r.Broadcast("start", eventMessage{Message: "go"}, "1111")
	assertNoEnvelope(t, ch)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	r := testRegistry()

	_, ch := r.Add("1111")

	// Fill the buffer without draining, then overflow it.
	for i := 0; i < cap(ch)+5; i++ {
		r.Broadcast("tick", eventMessage{Message: "x"}, "1111")
	}

	// The subscriber still gets the buffered events and nothing deadlocked.
	for i := 0; i < cap(ch); i++ {
		recvEnvelope(t, ch)
	}
	assertNoEnvelope(t, ch)
}

func TestLen(t *testing.T) {
	r := testRegistry()

	idA, _ := r.Add("1111")
	r.Add("1111")
	r.Add("2222")
	r.Add("")

	if got := r.Len("1111"); got != 2 {
		t.Errorf("Len(1111) = %d, want 2", got)
	}
	if got := r.Len("2222"); got != 1 {
		t.Errorf("Len(2222) = %d, want 1", got)
	}
	if got := r.Len(""); got != 4 {
		t.Errorf("Len(\"\") = %d, want 4", got)
	}

	r.Remove(idA)
	if got := r.Len("1111"); got != 1 {
		t.Errorf("Len(1111) after remove = %d, want 1", got)
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := testRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, ch := r.Add("1111")
				r.Broadcast("tick", eventMessage{Message: "x"}, "1111")
				select {
				case <-ch:
				default:
				}
				r.Remove(id)
			}
		}()
	}
	wg.Wait()

	if got := r.Len(""); got != 0 {
		t.Errorf("Len after teardown = %d, want 0", got)
	}
}
