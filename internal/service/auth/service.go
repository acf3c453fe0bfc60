package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/domain"
	"github.com/seu-repo/chargechain/internal/ports"
)

const challengePrefix = "auth:challenge:"

// Service implements wallet-signature authentication. A login is a two-step
// exchange: Challenge hands the wallet a one-time nonce, Login verifies the
// wallet's signature over it via the ledger and mints a JWT.
type Service struct {
	ledger       ports.Ledger
	validator    ports.Validator
	cache        ports.Cache
	jwtSecret    []byte
	tokenTTL     time.Duration
	challengeTTL time.Duration
	log          *zap.Logger
}

func NewService(
	ledger ports.Ledger,
	validator ports.Validator,
	cache ports.Cache,
	jwtSecret string,
	tokenTTL time.Duration,
	challengeTTL time.Duration,
	log *zap.Logger,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if challengeTTL <= 0 {
		challengeTTL = 5 * time.Minute
	}
	return &Service{
		ledger:       ledger,
		validator:    validator,
		cache:        cache,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		challengeTTL: challengeTTL,
		log:          log,
	}
}

// Challenge issues a one-time nonce for the wallet to sign. The nonce lives
// in the cache under a TTL; an unanswered challenge simply expires.
func (s *Service) Challenge(ctx context.Context, userAddress string) (string, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return "", err
	}

	nonce := fmt.Sprintf("chargechain login %s %s", addr, uuid.NewString())
	if err := s.cache.Set(ctx, challengePrefix+addr, nonce, s.challengeTTL); err != nil {
		return "", fmt.Errorf("failed to store login challenge: %w", err)
	}
	return nonce, nil
}

// Login verifies the wallet's signature over its outstanding challenge and
// returns a signed JWT. Unknown wallets are registered on the ledger lazily,
// so a first-time caller needs no separate signup step.
func (s *Service) Login(ctx context.Context, userAddress, signature string) (string, error) {
	addr, err := s.validator.NormalizeWalletAddress(userAddress)
	if err != nil {
		return "", err
	}

	nonce, err := s.cache.Get(ctx, challengePrefix+addr)
	if err != nil || nonce == "" {
		return "", domain.ErrValidation("no outstanding login challenge for %s", addr)
	}

	ok, err := s.ledger.VerifySignature(ctx, nonce, signature, addr)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrValidation("signature verification failed")
	}

	// One nonce, one login.
	if err := s.cache.Delete(ctx, challengePrefix+addr); err != nil {
		s.log.Warn("failed to clear login challenge", zap.String("user", addr), zap.Error(err))
	}

	user, err := s.ledger.GetUser(ctx, addr)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			return "", err
		}
		user, err = s.ledger.RegisterUser(ctx, addr, "", "")
		if err != nil {
			return "", err
		}
		s.log.Info("registered new user on first login", zap.String("user", addr))
	}

	token, err := s.mintToken(user.WalletAddress)
	if err != nil {
		return "", err
	}
	s.log.Info("user logged in", zap.String("user", addr))
	return token, nil
}

// ValidateToken checks a JWT and returns the wallet address it was minted
// for.
func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	addr, ok := claims["sub"].(string)
	if !ok || addr == "" {
		return "", errors.New("invalid subject in token")
	}
	return addr, nil
}

func (s *Service) mintToken(address string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": address,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
