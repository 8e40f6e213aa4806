package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/repository"
)

// identityService resolves caller ids against the user repository
type identityService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

func newIdentityService(users repository.UserRepository, log zerolog.Logger) *identityService {
	return &identityService{
		users: users,
		log:   log.With().Str("service", "identity").Logger(),
	}
}

// Resolve returns the actor for userID. An empty or unknown id is an
// anonymous caller and yields nil without error.
func (s *identityService) Resolve(ctx context.Context, userID string) (*models.Actor, error) {
	if userID == "" {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		s.log.Debug().Str("user_id", userID).Msg("Unknown user, treating as anonymous")
		return nil, nil
	}
	if !user.Active {
		return nil, forbidden("account is inactive")
	}

	return user.Actor(), nil
}
