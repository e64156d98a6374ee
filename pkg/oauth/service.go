package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/user"
)

// Service drives the authorization-code flow: it issues one-time state
// tokens, exchanges callback codes and resolves provider profiles into
// directory users, creating them on first sign-in.
type Service struct {
	users        user.Store
	adapter      ProviderAdapter
	states       StateStore
	stateTTL     time.Duration
	verifiedOnly bool
	log          *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStateTTL overrides the state token lifetime.
func WithStateTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithVerifiedOnly controls whether unverified provider emails are rejected.
func WithVerifiedOnly(verifiedOnly bool) ServiceOption {
	return func(s *Service) { s.verifiedOnly = verifiedOnly }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the OAuth service. Panics when a required collaborator
// is nil, matching other constructors that treat wiring mistakes as fatal.
func NewService(users user.Store, adapter ProviderAdapter, states StateStore, opts ...ServiceOption) *Service {
	if users == nil {
		panic("oauth: user store is required")
	}
	if adapter == nil {
		panic("oauth: provider adapter is required")
	}
	if states == nil {
		panic("oauth: state store is required")
	}

	s := &Service{
		users:        users,
		adapter:      adapter,
		states:       states,
		stateTTL:     10 * time.Minute,
		verifiedOnly: true,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin issues a fresh state token and returns the provider authorization
// URL to redirect the browser to.
func (s *Service) Begin(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.states.StoreState(ctx, state, time.Now().Add(s.stateTTL)); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return s.adapter.AuthURL(state), nil
}

// Complete consumes the state token, exchanges the authorization code and
// returns the directory user for the resolved profile, creating one on
// first sign-in. Lookup is by normalized email, so a returning user keeps
// their record even if the provider account id changed.
func (s *Service) Complete(ctx context.Context, code, state string) (*user.User, error) {
	if state == "" {
		return nil, ErrInvalidState
	}
	if err := s.states.ConsumeState(ctx, state); err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("consume state: %w", err)
	}

	profile, err := s.adapter.ResolveProfile(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.verifiedOnly && !profile.EmailVerified {
		return nil, ErrUnverifiedEmail
	}

	u, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, user.ErrUserNotFound):
		return s.createUser(ctx, profile)
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (s *Service) createUser(ctx context.Context, profile Profile) (*user.User, error) {
	u, err := user.NewUser(user.NewUserParams{
		Email:          profile.Email,
		GoogleID:       profile.ProviderUserID,
		Name:           profile.Name,
		GivenName:      profile.GivenName,
		FamilyName:     profile.FamilyName,
		ProfilePicture: profile.Picture,
	})
	if err != nil {
		return nil, fmt.Errorf("new user: %w", err)
	}

	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race against a concurrent first sign-in; the winner's
		// record is the canonical one.
		if errors.Is(err, user.ErrEmailTaken) {
			return s.users.FindByEmail(ctx, profile.Email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user created via oauth",
		logger.Component("oauth"),
		logger.UserID(u.ID),
		slog.String("provider", s.adapter.ProviderID()),
	)
	return u, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
