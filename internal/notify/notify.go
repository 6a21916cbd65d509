// Package notify delivers human-readable household messages over Telegram
// and Web Push.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/push"
)

// Sender is what the chore and project services notify through.
// An empty chatRef is a successful no-op.
type Sender interface {
	SendToUser(ctx context.Context, chatRef, text string) error
	SendToHousehold(ctx context.Context, householdID int64, text string, excludeUserID int64) error
}

type HouseholdLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Household, error)
}

type SubscriptionStore interface {
	ListByHousehold(ctx context.Context, householdID int64) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Gateway fans a message out to every configured channel. Either channel
// may be nil.
type Gateway struct {
	telegram   *Telegram
	push       *push.Service
	households HouseholdLookup
	subs       SubscriptionStore
	logger     *slog.Logger
}

func NewGateway(tg *Telegram, ps *push.Service, households HouseholdLookup, subs SubscriptionStore, logger *slog.Logger) *Gateway {
	return &Gateway{telegram: tg, push: ps, households: households, subs: subs, logger: logger}
}

func (g *Gateway) SendToUser(ctx context.Context, chatRef, text string) error {
	if chatRef == "" || g.telegram == nil {
		return nil
	}
	return g.telegram.SendMessage(ctx, chatRef, text)
}

// SendToHousehold posts to the household's group chat and pushes to every
// subscribed device except those of excludeUserID (0 excludes nobody).
func (g *Gateway) SendToHousehold(ctx context.Context, householdID int64, text string, excludeUserID int64) error {
	var errs []error

	if g.telegram != nil && g.households != nil {
		h, err := g.households.GetByID(ctx, householdID)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("lookup household: %w", err))
		case h != nil && h.TelegramChatID != "":
			if err := g.telegram.SendMessage(ctx, h.TelegramChatID, text); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if g.push != nil && g.subs != nil {
		if err := g.pushHousehold(ctx, householdID, text, excludeUserID); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (g *Gateway) pushHousehold(ctx context.Context, householdID int64, text string, excludeUserID int64) error {
	subs, err := g.subs.ListByHousehold(ctx, householdID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	report := g.push.Deliver(ctx, subs, excludeUserID, push.HouseholdMessage(householdID, text))
	for _, endpoint := range report.Expired {
		if err := g.subs.DeleteByEndpoint(ctx, endpoint); err != nil {
			g.logger.Warn("delete expired subscription", "endpoint", endpoint, "error", err)
		}
	}
	if report.Failed > 0 {
		g.logger.Warn("push delivery incomplete", "household_id", householdID,
			"sent", report.Sent, "failed", report.Failed)
		return fmt.Errorf("push: %w", report.Err)
	}
	return nil
}

// Nop discards every message.
type Nop struct{}

func (Nop) SendToUser(context.Context, string, string) error { return nil }

func (Nop) SendToHousehold(context.Context, int64, string, int64) error { return nil }
