package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/launchbase/launchbase/pkg/billing"
	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/user"
	"github.com/launchbase/launchbase/pkg/userfiles"
)

// DeletionService orchestrates account deletion across the user directory,
// the billing provider and object storage.
//
// Billing and storage cleanup are fail-soft: their failures are logged and
// deletion proceeds, because an orphaned subscription or stray objects are
// recoverable while a half-deleted account is not. Only the directory delete
// itself is fatal.
type DeletionService struct {
	users   user.Store
	billing billing.Provider
	cleaner *userfiles.Cleaner
	log     *slog.Logger
}

// NewDeletionService creates the deletion orchestrator. Billing and cleaner
// may be nil; their steps are then skipped.
func NewDeletionService(users user.Store, billingProvider billing.Provider, cleaner *userfiles.Cleaner, log *slog.Logger) *DeletionService {
	if users == nil {
		panic("account: user store is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DeletionService{
		users:   users,
		billing: billingProvider,
		cleaner: cleaner,
		log:     log,
	}
}

// DeleteAccount removes the user and everything attached to them. Returns
// user.ErrUserNotFound when there is no such user.
func (s *DeletionService) DeleteAccount(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if s.billing != nil && u.BillingCustomerID != "" {
		if err := s.billing.CancelSubscriptions(ctx, u.BillingCustomerID); err != nil {
			s.log.ErrorContext(ctx, "subscription cancellation failed during account deletion",
				logger.Error(err),
				logger.UserID(userID),
				logger.Component("account"),
			)
		}
	}

	if s.cleaner != nil {
		if err := s.cleaner.PurgeUser(ctx, userID); err != nil {
			s.log.ErrorContext(ctx, "object storage purge failed during account deletion",
				logger.Error(err),
				logger.UserID(userID),
				logger.Component("account"),
			)
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user record: %w", err)
	}

	s.log.InfoContext(ctx, "account deleted",
		logger.UserID(userID),
		logger.Component("account"),
	)
	return nil
}
