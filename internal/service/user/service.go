package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/ports"
)

// Service implements UserService.
type Service struct {
	ledger    ports.Ledger
	validator ports.Validator
	log       *zap.Logger
}

func NewService(ledger ports.Ledger, validator ports.Validator, log *zap.Logger) *Service {
	return &Service{
		ledger:    ledger,
		validator: validator,
		log:       log,
	}
}

// GetProfile returns the caller's ledger profile.
func (s *Service) GetProfile(ctx context.Context, userAddress string) (*domain.User, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return nil, err
	}
	return s.ledger.GetUser(ctx, addr)
}
