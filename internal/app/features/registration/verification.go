// internal/app/features/registration/verification.go
package registration

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ugcampus/grouphub/internal/app/system/mailer"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ResendWindow is the gap required between two code emails for the same
// address. It doubles as the validity window: a code older than this no
// longer verifies.
const ResendWindow = 3 * time.Minute

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// ErrNoDraft is returned when no pending signup exists for the email.
	ErrNoDraft = errors.New("no pending signup for this email")
	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("verification code does not match")
	// ErrCodeExpired is returned when the stored code is past its window.
	ErrCodeExpired = errors.New("verification code has expired")
)

// ResendTooSoonError reports that the previous code is still fresh and when
// the next one may be requested.
type ResendTooSoonError struct {
	AvailableAt time.Time
}

func (e *ResendTooSoonError) Error() string {
	return fmt.Sprintf("a code was sent recently, next one available at %s", e.AvailableAt.Format(time.RFC3339))
}

type pendingCodeStore interface {
	GetByEmail(ctx context.Context, email string) (*models.PendingUser, error)
	SetCode(ctx context.Context, email, code string, issuedAt time.Time) error
}

type emailSender interface {
	Send(e mailer.Email) error
}

// CodeManager issues and checks email verification codes for signup drafts.
// The code is persisted on the draft before the email goes out, so a lost
// email never strands state; the user can resend once the window passes.
type CodeManager struct {
	pending  pendingCodeStore
	sender   emailSender
	siteName string
	log      *zap.Logger

	now func() time.Time
}

func NewCodeManager(pending pendingCodeStore, sender emailSender, siteName string, logger *zap.Logger) *CodeManager {
	return &CodeManager{
		pending:  pending,
		sender:   sender,
		siteName: siteName,
		log:      logger,
		now:      time.Now,
	}
}

// generateCode draws a uniform 6-character code over [A-Za-z0-9].
func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateAndSend stores a fresh code on the draft for email and dispatches
// it. Returns when the next code may be requested. The email is sent only
// after the code is durably stored; a send failure is surfaced but does not
// roll the code back.
func (m *CodeManager) GenerateAndSend(ctx context.Context, email string) (time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return time.Time{}, err
	}

	issuedAt := m.now().UTC()
	if err := m.pending.SetCode(ctx, email, code, issuedAt); err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, ErrNoDraft
		}
		return time.Time{}, err
	}

	msg := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  m.siteName,
		Code:      code,
		ExpiresIn: formatMinutes(ResendWindow),
	})
	msg.To = email
	if err := m.sender.Send(msg); err != nil {
		m.log.Error("verification email dispatch failed",
			zap.String("email", email),
			zap.Error(err))
		return time.Time{}, err
	}

	return issuedAt.Add(ResendWindow), nil
}

// Verify checks the submitted code against the draft for email and returns
// the draft on success so the caller can promote it.
func (m *CodeManager) Verify(ctx context.Context, email, code string) (*models.PendingUser, error) {
	draft, err := m.pending.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoDraft
		}
		return nil, err
	}

	v := draft.Verification
	if v.Code == nil || v.CodeIssuedAt == nil || *v.Code != code {
		return nil, ErrCodeMismatch
	}
	if m.now().After(v.CodeIssuedAt.Add(ResendWindow)) {
		return nil, ErrCodeExpired
	}
	return draft, nil
}

// Resend issues a new code unless the previous one is still inside the
// window, in which case it reports when the next send becomes available.
func (m *CodeManager) Resend(ctx context.Context, email string) (time.Time, error) {
	draft, err := m.pending.GetByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, ErrNoDraft
		}
		return time.Time{}, err
	}

	if at := draft.Verification.CodeIssuedAt; at != nil {
		availableAt := at.Add(ResendWindow)
		if !m.now().After(availableAt) {
			return time.Time{}, &ResendTooSoonError{AvailableAt: availableAt}
		}
	}

	return m.GenerateAndSend(ctx, draft.Verification.Email)
}

// formatMinutes renders a duration as "N minutes" for email copy.
func formatMinutes(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
