package cashbox

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"go.uber.org/zap"
)

// ArchiveStore writes JSON documents to object storage
type ArchiveStore interface {
	Key(parts ...string) string
	PutJSON(ctx context.Context, key string, v any) error
}

// SessionArchive is the close-out record written for every closed session
type SessionArchive struct {
	Session    SessionResponse     `json:"session"`
	Movements  []MovementResponse  `json:"movements"`
	Counts     []CashCountResponse `json:"counts"`
	ArchivedAt time.Time           `json:"archived_at"`
}

// SessionArchiveHandler archives a closed session with its ledger entries
// and counts to object storage
type SessionArchiveHandler struct {
	sessions  cashbox.SessionRepository
	movements cashbox.MovementRepository
	counts    cashbox.CashCountRepository
	store     ArchiveStore
	logger    *zap.Logger
}

// NewSessionArchiveHandler creates a new SessionArchiveHandler
func NewSessionArchiveHandler(
	sessions cashbox.SessionRepository,
	movements cashbox.MovementRepository,
	counts cashbox.CashCountRepository,
	store ArchiveStore,
	logger *zap.Logger,
) *SessionArchiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionArchiveHandler{
		sessions:  sessions,
		movements: movements,
		counts:    counts,
		store:     store,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SessionArchiveHandler) EventTypes() []string {
	return []string{cashbox.EventTypeSessionClosed}
}

// ArchiveKey returns the object key of a session archive
func (h *SessionArchiveHandler) ArchiveKey(s *cashbox.Session) string {
	return h.store.Key("sessions", s.TenantID.String(), s.OpenedAt.UTC().Format("2006/01"), s.ID.String()+".json")
}

// Handle processes a SessionClosedEvent
func (h *SessionArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	closed, ok := event.(*cashbox.SessionClosedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			cashbox.EventTypeSessionClosed, event.EventType())
	}
	tenantID := event.TenantID()

	session, err := h.sessions.FindByIDForTenant(ctx, tenantID, closed.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	archive := SessionArchive{
		Session:    *toSessionResponse(session),
		ArchivedAt: time.Now().UTC(),
	}

	sid := session.ID
	filter := cashbox.MovementFilter{
		Filter:    shared.Filter{Page: 1, PageSize: 100, OrderBy: "recorded_at", OrderDir: "asc"},
		SessionID: &sid,
	}
	for {
		page, total, err := h.movements.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return fmt.Errorf("failed to load session movements: %w", err)
		}
		for i := range page {
			archive.Movements = append(archive.Movements, *toMovementResponse(&page[i]))
		}
		if len(page) == 0 || int64(len(archive.Movements)) >= total {
			break
		}
		filter.Page++
	}

	counts, err := h.counts.FindBySession(ctx, tenantID, session.ID)
	if err != nil {
		return fmt.Errorf("failed to load session counts: %w", err)
	}
	for i := range counts {
		archive.Counts = append(archive.Counts, *toCashCountResponse(&counts[i]))
	}

	key := h.ArchiveKey(session)
	if err := h.store.PutJSON(ctx, key, archive); err != nil {
		h.logger.Error("failed to archive session",
			zap.String("session_id", session.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	h.logger.Info("session archived",
		zap.String("session_id", session.ID.String()),
		zap.String("key", key),
		zap.Int("movements", len(archive.Movements)),
		zap.Int("counts", len(archive.Counts)),
	)
	return nil
}

var _ shared.EventHandler = (*SessionArchiveHandler)(nil)
