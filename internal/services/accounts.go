package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"waz-calendar/internal/models"
	"waz-calendar/internal/repositories"
)

// accounts loads an account, applies a change and saves it with the version it was read at.
type accounts struct {
	dir repositories.AccountDirectory
}

func (a accounts) load(ctx context.Context, username string) (models.Account, error) {
	rec, err := a.dir.FindByUsername(ctx, username)
	if err != nil {
		return models.Account{}, err
	}
	return rec.Account, nil
}

// mutate never retries: a version conflict is returned to the caller.
func (a accounts) mutate(ctx context.Context, username string, change func(*models.Account) error) (models.Account, error) {
	rec, err := a.dir.FindByUsername(ctx, username)
	if err != nil {
		return models.Account{}, err
	}
	if err := change(&rec.Account); err != nil {
		return models.Account{}, err
	}
	if _, err := a.dir.Save(ctx, rec.Handle, rec.Account); err != nil {
		return models.Account{}, err
	}
	return rec.Account, nil
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// appendNotification adds n and drops the oldest entries beyond limit.
func appendNotification(acc *models.Account, n models.Notification, limit int) {
	acc.Notifications = append(acc.Notifications, n)
	if limit > 0 && len(acc.Notifications) > limit {
		acc.Notifications = acc.Notifications[len(acc.Notifications)-limit:]
	}
}

func newNotification(kind models.NotificationType, from, message string, now time.Time) models.Notification {
	return models.Notification{
		ID:        newID("notification"),
		Type:      kind,
		From:      from,
		Message:   message,
		CreatedAt: now.UTC(),
	}
}
