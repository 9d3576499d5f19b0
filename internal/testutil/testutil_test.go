package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/events"
)

// --- MockSubscriber Tests ---

func TestMockSubscriber_Send(t *testing.T) {
	sub := NewMockSubscriber("test-sub")

	if err := sub.Send(events.NewReloadEvent("a.css")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if sub.EventCount() != 1 {
		t.Errorf("expected 1 event, got %d", sub.EventCount())
	}
	if sub.Events()[0].Type() != events.EventTypeReload {
		t.Errorf("expected reload event, got %s", sub.Events()[0].Type())
	}
}

func TestMockSubscriber_SendWithError(t *testing.T) {
	sub := NewMockSubscriber("test-sub")
	expectedErr := errors.New("send failed")
	sub.SetSendError(expectedErr)

	if err := sub.Send(events.NewReloadEvent("a.css")); err != expectedErr {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}
	if sub.EventCount() != 0 {
		t.Errorf("expected 0 events, got %d", sub.EventCount())
	}
}

func TestMockSubscriber_Close(t *testing.T) {
	sub := NewMockSubscriber("test-sub")
	_ = sub.Close()
	_ = sub.Close()

	if !sub.IsClosed() {
		t.Error("expected subscriber to be closed")
	}
	select {
	case <-sub.Done():
	default:
		t.Error("Done() channel should be closed")
	}
}

// --- MockEventHub Tests ---

func TestMockEventHub(t *testing.T) {
	hub := NewMockEventHub()
	_ = hub.Start()

	if !hub.IsRunning() {
		t.Error("expected hub to be running")
	}

	hub.Subscribe(NewMockSubscriber("a"))
	hub.Subscribe(NewMockSubscriber("b"))
	hub.Unsubscribe("a")
	if hub.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	hub.Publish(events.NewReloadEvent("index.html"))
	if len(hub.PublishedEvents()) != 1 {
		t.Errorf("expected 1 published event, got %d", len(hub.PublishedEvents()))
	}

	_ = hub.Stop()
	if hub.IsRunning() {
		t.Error("expected hub to be stopped")
	}
}

// --- RecordingListener Tests ---

func TestRecordingListener(t *testing.T) {
	l := NewRecordingListener()
	l.OnChange("a.css")
	l.OnChange("b.js")
	l.OnChange("a.css")

	if got := l.Paths(); len(got) != 3 || got[1] != "b.js" {
		t.Errorf("Paths() = %v", got)
	}
	if l.Count("a.css") != 2 {
		t.Errorf("Count(a.css) = %d, want 2", l.Count("a.css"))
	}
}

// --- FakeWatchService Tests ---

func TestFakeWatchService_SignalAndTake(t *testing.T) {
	svc := NewFakeWatchService()
	defer svc.Close()

	k, err := svc.Register("/site")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	svc.Signal("/site", Modify("index.html"), Create("img"))

	got, err := svc.Take(context.Background())
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if got != k {
		t.Fatal("Take() returned a different key")
	}
	if evs := got.PollEvents(); len(evs) != 2 {
		t.Errorf("PollEvents() returned %d events, want 2", len(evs))
	}
	if !got.Reset() {
		t.Error("Reset() = false, want true")
	}
}

func TestFakeWatchService_FailRegister(t *testing.T) {
	svc := NewFakeWatchService()
	svc.FailRegister("/site/private", errors.New("permission denied"))

	if _, err := svc.Register("/site/private"); err == nil {
		t.Error("expected injected error")
	}
	if len(svc.Registered()) != 0 {
		t.Errorf("Registered() = %v, want empty", svc.Registered())
	}
}

func TestFakeWatchService_Invalidate(t *testing.T) {
	svc := NewFakeWatchService()
	_, _ = svc.Register("/site")

	svc.Invalidate("/site")

	k, _ := svc.Take(context.Background())
	if k.Reset() {
		t.Error("Reset() on invalidated key should return false")
	}
	if svc.Key("/site") != nil {
		t.Error("invalidated key should be forgotten")
	}
}

func TestFakeWatchService_Close(t *testing.T) {
	svc := NewFakeWatchService()

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Take(context.Background())
		errCh <- err
	}()

	_ = svc.Close()
	_ = svc.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, domain.ErrWatchServiceClosed) {
			t.Errorf("Take() error = %v, want ErrWatchServiceClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Take() did not unblock")
	}

	if _, err := svc.Register("/site"); !errors.Is(err, domain.ErrWatchServiceClosed) {
		t.Errorf("Register() after Close() error = %v", err)
	}
}
