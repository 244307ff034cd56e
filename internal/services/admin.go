package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

type AdminRepository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	Credit(ctx context.Context, id uuid.UUID, amount models.Money) (*models.Account, error)
	Stats(ctx context.Context) (*models.HouseStats, error)
}

type AdminService struct {
	repo   AdminRepository
	logger *zap.Logger
}

func NewAdminService(repo AdminRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		logger: logger,
	}
}

func (s *AdminService) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return false, err
	}
	return account.IsAdmin, nil
}

func (s *AdminService) Stats(ctx context.Context) (*models.HouseStats, error) {
	return s.repo.Stats(ctx)
}

func (s *AdminService) Users(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// Credit grants a positive amount to an account, bypassing the wager rules.
func (s *AdminService) Credit(ctx context.Context, adminID, accountID uuid.UUID, amount models.Money) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", svcerr.ErrBadField)
	}

	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	if amount > math.MaxInt64-account.Balance {
		return nil, fmt.Errorf("%w: amount would overflow the balance", svcerr.ErrBadField)
	}

	account, err = s.repo.Credit(ctx, accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	s.logger.Info("account credited",
		zap.String("admin_id", adminID.String()),
		zap.String("account_id", accountID.String()),
		zap.Stringer("amount", amount))

	return account, nil
}
