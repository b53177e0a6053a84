package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bouleverse/bookvault/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Redemption failures form a closed set so callers can render a precise,
// non-leaking message per reason.
var (
	ErrTokenMissing = errors.New("no token presented")
	ErrTokenInvalid = errors.New("token not found")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenUsed    = errors.New("token already used")
)

// TokenTTL is how long a magic link stays redeemable after issuance.
const TokenTTL = 15 * time.Minute

type LoginTokenService struct {
	db *gorm.DB
}

func NewLoginTokenService(db *gorm.DB) *LoginTokenService {
	return &LoginTokenService{db: db}
}

// NormalizeEmail case-folds and trims an email for use as identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue creates the user on first sight, stores a hashed single-use token
// with a 15-minute expiry and returns the plaintext exactly once. Earlier
// outstanding tokens for the same user stay valid.
func (s *LoginTokenService) Issue(email string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.findOrCreateUser(email)
	if err != nil {
		return "", err
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.LoginToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(TokenTTL),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store login token: %w", err)
	}

	return rawToken, nil
}

// Redeem consumes a presented token and returns the owning email. The
// consumption is a single conditional write guarded by "unconsumed", so of
// two concurrent redemptions exactly one succeeds and the other observes
// ErrTokenUsed.
func (s *LoginTokenService) Redeem(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrTokenMissing
	}

	var token models.LoginToken
	err := s.db.Joins("User").
		Where("login_tokens.token_hash = ?", hashToken(plaintext)).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("failed to look up login token: %w", err)
	}

	if token.UsedAt != nil {
		return "", ErrTokenUsed
	}
	if !time.Now().Before(token.ExpiresAt) {
		return "", ErrTokenExpired
	}

	result := s.db.Model(&models.LoginToken{}).
		Where("id = ? AND used_at IS NULL", token.ID).
		Update("used_at", time.Now())
	if result.Error != nil {
		return "", fmt.Errorf("failed to consume login token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent redemption.
		return "", ErrTokenUsed
	}

	return token.User.Email, nil
}

func (s *LoginTokenService) findOrCreateUser(email string) (*models.User, error) {
	user := models.User{ID: uuid.New(), Email: email}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Re-read so a concurrent insert still yields the canonical row.
	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("user not found after upsert: %w", err)
	}
	return &existing, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
