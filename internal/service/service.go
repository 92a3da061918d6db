package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/repository"
	apperrors "github.com/campusdesk/service-desk/pkg/util/errorutil"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// mapRepoError translates repository sentinels into domain errors.
func mapRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, clock Clock, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clock.now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	return nil
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
