package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/entities"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/repositories"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

// NotificationLogAdapter implements the NotificationLogRepository interface
type NotificationLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewNotificationLogAdapter creates a new notification log adapter
func NewNotificationLogAdapter(client *postgres.Client) repositories.NotificationLogRepository {
	return &NotificationLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append records a delivered notification
func (a *NotificationLogAdapter) Append(ctx context.Context, entry *entities.NotificationLogEntry) error {
	query, args, err := a.db.Insert("notification_log").Rows(goqu.Record{
		"id":                entry.ID,
		"booking_id":        entry.BookingID,
		"notification_type": entry.Type,
		"recipient":         entry.Recipient,
		"sent_at":           entry.SentAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append notification log entry", err)
	}
	return nil
}

// SentSince reports whether a notification of the given type was delivered
// to the booking after the given instant
func (a *NotificationLogAdapter) SentSince(ctx context.Context, bookingID, notifType string, since time.Time) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("notification_log").
		Where(goqu.Ex{
			"booking_id":        bookingID,
			"notification_type": notifType,
		}).
		Where(goqu.C("sent_at").Gt(since)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to query notification log", err)
	}
	return count > 0, nil
}
