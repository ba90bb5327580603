// Package presence tracks per-user chat availability. The store is a cache of
// the professional chat_status column and can be rebuilt from it at any time;
// the tracker demotes users to offline once their heartbeat goes silent past
// the configured window.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status is a user's chat availability.
type Status string

const (
	StatusOnline  Status = "online"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the three known states. Any state may
// transition to any other.
func (s Status) Valid() bool {
	return s == StatusOnline || s == StatusBusy || s == StatusOffline
}

// Entry is one tracked user.
type Entry struct {
	OrgID    uuid.UUID
	UserID   uuid.UUID
	Status   Status
	LastSeen time.Time
}

// Store caches the last known status and heartbeat per user.
type Store interface {
	Set(ctx context.Context, orgID, userID uuid.UUID, status Status, at time.Time) error
	Get(ctx context.Context, orgID, userID uuid.UUID) (Status, bool, error)
	Touch(ctx context.Context, orgID, userID uuid.UUID, at time.Time) error
	StaleBefore(ctx context.Context, cutoff time.Time) ([]Entry, error)
	Delete(ctx context.Context, orgID, userID uuid.UUID) error
}

// Broadcaster pushes status_change events to connected clients of an
// organization. The relay hub implements it.
type Broadcaster interface {
	BroadcastStatus(orgID, userID uuid.UUID, status string)
}

// ChatStatusWriter persists a user's chat status on their professional record
// when one exists. A user without a professional record is not an error.
type ChatStatusWriter interface {
	SetChatStatusByUser(ctx context.Context, orgID, userID uuid.UUID, status string) error
}

// Tracker coordinates the store, the relay broadcast, and the professional
// record.
type Tracker struct {
	store         Store
	broadcast     Broadcaster
	professionals ChatStatusWriter
	window        time.Duration
	logger        zerolog.Logger
}

func NewTracker(store Store, broadcast Broadcaster, professionals ChatStatusWriter, window time.Duration, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:         store,
		broadcast:     broadcast,
		professionals: professionals,
		window:        window,
		logger:        logger,
	}
}

// Connected marks a user online when their relay connection is established.
func (t *Tracker) Connected(ctx context.Context, orgID, userID uuid.UUID) {
	if err := t.UpdateStatus(ctx, orgID, userID, string(StatusOnline)); err != nil {
		t.logger.Error().Err(err).Str("user_id", userID.String()).Msg("presence connect")
	}
}

// Disconnected refreshes the heartbeat one last time. The user is demoted to
// offline by the sweeper once the window elapses without a reconnect, so a
// quick reconnect does not flap the status.
func (t *Tracker) Disconnected(ctx context.Context, orgID, userID uuid.UUID) {
	if err := t.store.Touch(ctx, orgID, userID, time.Now().UTC()); err != nil {
		t.logger.Error().Err(err).Str("user_id", userID.String()).Msg("presence disconnect")
	}
}

// UpdateStatus records a status change, fans it out to the organization, and
// persists it on the user's professional record.
func (t *Tracker) UpdateStatus(ctx context.Context, orgID, userID uuid.UUID, status string) error {
	s := Status(status)
	if !s.Valid() {
		return fmt.Errorf("invalid presence status %q", status)
	}

	if err := t.store.Set(ctx, orgID, userID, s, time.Now().UTC()); err != nil {
		return fmt.Errorf("presence store set: %w", err)
	}

	t.broadcast.BroadcastStatus(orgID, userID, string(s))

	if err := t.professionals.SetChatStatusByUser(ctx, orgID, userID, string(s)); err != nil {
		// The store and broadcast already happened; persistence is
		// best-effort and retried on the next update.
		t.logger.Error().Err(err).Str("user_id", userID.String()).Msg("persist chat_status")
	}
	return nil
}

// StatusOf returns the tracked status, defaulting to offline for unknown
// users.
func (t *Tracker) StatusOf(ctx context.Context, orgID, userID uuid.UUID) Status {
	status, ok, err := t.store.Get(ctx, orgID, userID)
	if err != nil {
		t.logger.Error().Err(err).Str("user_id", userID.String()).Msg("presence store get")
		return StatusOffline
	}
	if !ok {
		return StatusOffline
	}
	return status
}

// Heartbeat refreshes a user's last-seen time without changing their status.
// Called by the polling endpoint.
func (t *Tracker) Heartbeat(ctx context.Context, orgID, userID uuid.UUID) {
	if err := t.store.Touch(ctx, orgID, userID, time.Now().UTC()); err != nil {
		t.logger.Error().Err(err).Str("user_id", userID.String()).Msg("presence heartbeat")
	}
}

// Sweep demotes every user whose heartbeat is older than the window to
// offline and broadcasts the change.
func (t *Tracker) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-t.window)
	stale, err := t.store.StaleBefore(ctx, cutoff)
	if err != nil {
		t.logger.Error().Err(err).Msg("presence sweep")
		return
	}

	for _, entry := range stale {
		if entry.Status == StatusOffline {
			continue
		}
		if err := t.UpdateStatus(ctx, entry.OrgID, entry.UserID, string(StatusOffline)); err != nil {
			t.logger.Error().Err(err).Str("user_id", entry.UserID.String()).Msg("presence demote")
		}
	}
}

// Run sweeps on an interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	interval := t.window / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}
