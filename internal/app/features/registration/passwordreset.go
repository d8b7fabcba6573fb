// internal/app/features/registration/passwordreset.go
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/app/system/mailer"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ResetTokenTTL is how long a password reset link stays usable. A live token
// also blocks issuing another one, so this doubles as the re-request window.
const ResetTokenTTL = 5 * time.Minute

var (
	// ErrNoUser is returned when no verified account owns the email.
	ErrNoUser = errors.New("no account with this email")
	// ErrResetTokenInvalid is returned for unknown or expired reset tokens.
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
)

// ResetTooSoonError reports that a live token already exists and when a new
// one may be requested.
type ResetTooSoonError struct {
	AvailableAt time.Time
}

func (e *ResetTooSoonError) Error() string {
	return fmt.Sprintf("a reset link was sent recently, next one available at %s", e.AvailableAt.Format(time.RFC3339))
}

type resetUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, digest string) error
}

type resetTokenStore interface {
	GetByEmail(ctx context.Context, email string) (*models.PasswordResetToken, error)
	GetByValue(ctx context.Context, value string) (*models.PasswordResetToken, error)
	Replace(ctx context.Context, tok models.PasswordResetToken) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ResetManager issues single-use password reset tokens and consumes them.
// Expired tokens are deleted when encountered rather than swept.
type ResetManager struct {
	users    resetUserStore
	tokens   resetTokenStore
	sender   emailSender
	siteName string
	baseURL  string
	log      *zap.Logger

	ttl time.Duration
	now func() time.Time
}

func NewResetManager(users resetUserStore, tokens resetTokenStore, sender emailSender, siteName, baseURL string, logger *zap.Logger) *ResetManager {
	return &ResetManager{
		users:    users,
		tokens:   tokens,
		sender:   sender,
		siteName: siteName,
		baseURL:  baseURL,
		log:      logger,
		ttl:      ResetTokenTTL,
		now:      time.Now,
	}
}

// Request issues a reset token for the account owning email and mails the
// reset link. While a previous token is still live the request is refused
// with the time the next one becomes available.
func (m *ResetManager) Request(ctx context.Context, email string) error {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNoUser
		}
		return err
	}

	now := m.now().UTC()
	if prior, err := m.tokens.GetByEmail(ctx, user.Email); err == nil {
		if !prior.Expired(now) {
			return &ResetTooSoonError{AvailableAt: prior.ExpiresAt}
		}
		// Expired leftover; Replace below clears it.
	} else if err != mongo.ErrNoDocuments {
		return err
	}

	tok := models.PasswordResetToken{
		Value:     uuid.NewString(),
		UserEmail: user.Email,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.tokens.Replace(ctx, tok); err != nil {
		return err
	}

	msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		SiteName:  m.siteName,
		ResetLink: m.baseURL + "/reset-password/" + tok.Value,
		ExpiresIn: formatMinutes(m.ttl),
	})
	msg.To = user.Email
	if err := m.sender.Send(msg); err != nil {
		m.log.Error("password reset email dispatch failed",
			zap.String("email", user.Email),
			zap.Error(err))
		return err
	}
	return nil
}

// Consume redeems a reset token: the owning user's password is replaced with
// a fresh hash of newPassword and the token is deleted. Unknown and expired
// tokens both report ErrResetTokenInvalid; an expired token is deleted on
// sight.
func (m *ResetManager) Consume(ctx context.Context, value, newPassword string) error {
	tok, err := m.tokens.GetByValue(ctx, value)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrResetTokenInvalid
		}
		return err
	}

	if tok.Expired(m.now().UTC()) {
		if err := m.tokens.Delete(ctx, tok.ID); err != nil {
			m.log.Warn("delete expired reset token failed", zap.Error(err))
		}
		return ErrResetTokenInvalid
	}

	digest, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := m.users.UpdatePassword(ctx, tok.UserEmail, digest); err != nil {
		if err == mongo.ErrNoDocuments {
			// Account deleted while the token was live.
			return ErrResetTokenInvalid
		}
		return err
	}

	// The token is single use; success must not be reported while it is
	// still redeemable.
	if err := m.tokens.Delete(ctx, tok.ID); err != nil {
		return fmt.Errorf("delete consumed reset token: %w", err)
	}
	return nil
}
