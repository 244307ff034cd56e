package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"betting-backend/internal/models"
	"betting-backend/internal/svcerr"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListWagers(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Wager, error)
}

type AccountConfig struct {
	StartingBalance models.Money
	// AdminEmails are granted the administrator flag when they register.
	AdminEmails []string
	HashCost    int
}

type AccountService struct {
	repo   AccountRepository
	tokens *JWTService
	cfg    AccountConfig
	admins map[string]struct{}
	logger *zap.Logger
}

func NewAccountService(repo AccountRepository, tokens *JWTService, cfg AccountConfig, logger *zap.Logger) *AccountService {
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}

	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}

	return &AccountService{
		repo:   repo,
		tokens: tokens,
		cfg:    cfg,
		admins: admins,
		logger: logger,
	}
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", svcerr.ErrBadField)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.HashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", svcerr.ErrBadField, err)
	}

	_, isAdmin := s.admins[email]
	account := &models.Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      s.cfg.StartingBalance,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", email, err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", account.ID.String()),
		zap.Bool("admin", account.IsAdmin))

	return account, nil
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.repo.GetAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if svcerr.IsNotFound(err) {
			return nil, fmt.Errorf("%w: invalid email or password", svcerr.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("%w: invalid email or password", svcerr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := s.tokens.GenerateToken(account)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: token,
		User:  account,
	}, nil
}

func (s *AccountService) Me(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) History(ctx context.Context, id uuid.UUID, limit int) ([]models.Wager, error) {
	wagers, err := s.repo.ListWagers(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	if wagers == nil {
		wagers = []models.Wager{}
	}
	return wagers, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
