package presence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeBroadcaster struct {
	events []struct {
		orgID  uuid.UUID
		userID uuid.UUID
		status string
	}
}

func (f *fakeBroadcaster) BroadcastStatus(orgID, userID uuid.UUID, status string) {
	f.events = append(f.events, struct {
		orgID  uuid.UUID
		userID uuid.UUID
		status string
	}{orgID, userID, status})
}

type fakeWriter struct {
	statuses map[uuid.UUID]string
	err      error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{statuses: make(map[uuid.UUID]string)}
}

func (f *fakeWriter) SetChatStatusByUser(_ context.Context, orgID, userID uuid.UUID, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[userID] = status
	return nil
}

func newTestTracker(window time.Duration) (*Tracker, *MemoryStore, *fakeBroadcaster, *fakeWriter) {
	store := NewMemoryStore()
	broadcast := &fakeBroadcaster{}
	writer := newFakeWriter()
	tracker := NewTracker(store, broadcast, writer, window, zerolog.Nop())
	return tracker, store, broadcast, writer
}

func TestUpdateStatus_BroadcastsAndPersists(t *testing.T) {
	tracker, _, broadcast, writer := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	userID := uuid.New()

	if err := tracker.UpdateStatus(context.Background(), orgID, userID, "busy"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if got := tracker.StatusOf(context.Background(), orgID, userID); got != StatusBusy {
		t.Errorf("expected busy, got %s", got)
	}
	if len(broadcast.events) != 1 || broadcast.events[0].status != "busy" {
		t.Errorf("expected one busy broadcast, got %v", broadcast.events)
	}
	if writer.statuses[userID] != "busy" {
		t.Errorf("expected chat_status persisted, got %q", writer.statuses[userID])
	}
}

func TestUpdateStatus_RejectsUnknownState(t *testing.T) {
	tracker, _, broadcast, _ := newTestTracker(90 * time.Second)

	if err := tracker.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "away"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if len(broadcast.events) != 0 {
		t.Error("no broadcast expected for a rejected status")
	}
}

func TestUpdateStatus_PersistFailureIsNotFatal(t *testing.T) {
	tracker, _, broadcast, writer := newTestTracker(90 * time.Second)
	writer.err = context.DeadlineExceeded

	if err := tracker.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "online"); err != nil {
		t.Fatalf("expected persist failure swallowed, got %v", err)
	}
	if len(broadcast.events) != 1 {
		t.Error("broadcast should happen even when persistence fails")
	}
}

func TestConnected_MarksOnline(t *testing.T) {
	tracker, _, _, _ := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	userID := uuid.New()

	tracker.Connected(context.Background(), orgID, userID)

	if got := tracker.StatusOf(context.Background(), orgID, userID); got != StatusOnline {
		t.Errorf("expected online after connect, got %s", got)
	}
}

func TestStatusOf_UnknownUserIsOffline(t *testing.T) {
	tracker, _, _, _ := newTestTracker(90 * time.Second)
	if got := tracker.StatusOf(context.Background(), uuid.New(), uuid.New()); got != StatusOffline {
		t.Errorf("expected offline for unknown user, got %s", got)
	}
}

func TestSweep_DemotesStaleUsers(t *testing.T) {
	tracker, store, broadcast, writer := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	stale := uuid.New()
	fresh := uuid.New()

	old := time.Now().UTC().Add(-5 * time.Minute)
	if err := store.Set(context.Background(), orgID, stale, StatusOnline, old); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	if err := store.Set(context.Background(), orgID, fresh, StatusBusy, time.Now().UTC()); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	tracker.Sweep(context.Background())

	if got := tracker.StatusOf(context.Background(), orgID, stale); got != StatusOffline {
		t.Errorf("expected stale user demoted to offline, got %s", got)
	}
	if got := tracker.StatusOf(context.Background(), orgID, fresh); got != StatusBusy {
		t.Errorf("expected fresh user untouched, got %s", got)
	}
	if writer.statuses[stale] != "offline" {
		t.Errorf("expected demotion persisted, got %q", writer.statuses[stale])
	}
	if len(broadcast.events) != 1 || broadcast.events[0].userID != stale {
		t.Errorf("expected one offline broadcast for the stale user, got %v", broadcast.events)
	}
}

func TestSweep_SkipsAlreadyOffline(t *testing.T) {
	tracker, store, broadcast, _ := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	userID := uuid.New()

	old := time.Now().UTC().Add(-5 * time.Minute)
	if err := store.Set(context.Background(), orgID, userID, StatusOffline, old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tracker.Sweep(context.Background())

	if len(broadcast.events) != 0 {
		t.Errorf("offline users must not be re-demoted, got %v", broadcast.events)
	}
}

func TestHeartbeat_KeepsUserFresh(t *testing.T) {
	tracker, store, _, _ := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	userID := uuid.New()

	old := time.Now().UTC().Add(-5 * time.Minute)
	if err := store.Set(context.Background(), orgID, userID, StatusBusy, old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tracker.Heartbeat(context.Background(), orgID, userID)
	tracker.Sweep(context.Background())

	if got := tracker.StatusOf(context.Background(), orgID, userID); got != StatusBusy {
		t.Errorf("expected heartbeat to keep user busy, got %s", got)
	}
}

func TestDisconnected_DoesNotFlapStatus(t *testing.T) {
	tracker, _, broadcast, _ := newTestTracker(90 * time.Second)
	orgID := uuid.New()
	userID := uuid.New()

	tracker.Connected(context.Background(), orgID, userID)
	tracker.Disconnected(context.Background(), orgID, userID)

	// Disconnect only touches the heartbeat; the user stays online until the
	// sweep window elapses.
	if got := tracker.StatusOf(context.Background(), orgID, userID); got != StatusOnline {
		t.Errorf("expected user still online right after disconnect, got %s", got)
	}
	if len(broadcast.events) != 1 {
		t.Errorf("expected only the connect broadcast, got %d", len(broadcast.events))
	}
}

func TestMemoryStore_StaleBefore(t *testing.T) {
	store := NewMemoryStore()
	orgID := uuid.New()
	a := uuid.New()
	b := uuid.New()
	now := time.Now().UTC()

	if err := store.Set(context.Background(), orgID, a, StatusOnline, now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := store.Set(context.Background(), orgID, b, StatusOnline, now); err != nil {
		t.Fatalf("set b: %v", err)
	}

	stale, err := store.StaleBefore(context.Background(), now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("stale before: %v", err)
	}
	if len(stale) != 1 || stale[0].UserID != a {
		t.Fatalf("expected only user a stale, got %v", stale)
	}
}
