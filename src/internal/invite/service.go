package invite

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/credential"
	"casehub-auth-svc/src/internal/models"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Mailer is the outbound edge of the invite flow; the invite service
// composes the message, the transport owns delivery.
type Mailer interface {
	Send(ctx context.Context, msg *models.MailMessage) error
}

type Service interface {
	Issue(ctx context.Context, inviteType, email, firmID, clientID, inviterID, inviterEmail string) (*Invite, error)
	BuildActivationLink(token string) (string, error)
	ComposeMessage(inviteType, inviterEmail, activationLink string) *Message
	Accept(ctx context.Context, token, password string) (*credential.User, error)
}

type inviteService struct {
	repository  Repository
	credentials credential.Service
	mailer      Mailer
	cfg         *config.InviteConfig
}

func NewInviteService(repository Repository, credentials credential.Service, mailer Mailer, cfg *config.Configuration) Service {
	return &inviteService{
		repository:  repository,
		credentials: credentials,
		mailer:      mailer,
		cfg:         &cfg.Invite,
	}
}

// newToken returns an opaque single-use token: two UUIDv4s with the
// dashes stripped, 64 hex characters.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func roleForType(inviteType string) string {
	switch inviteType {
	case TypeAttorneyOwner:
		return credential.RoleAttorney
	case TypeClientOwner:
		return credential.RoleClient
	default:
		return credential.RoleStaff
	}
}

// Issue creates the invite token and the pending account it points at,
// then mails the activation link. The caller has already authorized the
// inviter for the firm or client context.
func (s *inviteService) Issue(ctx context.Context, inviteType, email, firmID, clientID, inviterID, inviterEmail string) (*Invite, error) {
	email = credential.NormalizeEmail(email)

	existing, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if _, err := s.credentials.CreatePending(ctx, email, roleForType(inviteType), firmID, clientID); err != nil {
			return nil, err
		}
	} else if existing.Status != credential.StatusPending {
		return nil, models.ErrDuplicateEmail
	}

	expiry := time.Duration(s.cfg.ExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}

	now := time.Now().UTC()
	invite := &Invite{
		Token:     newToken(),
		Type:      inviteType,
		Email:     email,
		FirmID:    firmID,
		ClientID:  clientID,
		InvitedBy: inviterID,
		ExpiresAt: now.Add(expiry),
		CreatedAt: now,
	}

	if err := s.repository.Insert(ctx, invite); err != nil {
		return nil, err
	}

	link, err := s.BuildActivationLink(invite.Token)
	if err != nil {
		return nil, err
	}

	msg := s.ComposeMessage(inviteType, inviterEmail, link)
	mail := &models.MailMessage{
		To:        email,
		Subject:   msg.Subject,
		Text:      msg.Text,
		HTML:      msg.HTML,
		Timestamp: now,
	}
	if err := s.mailer.Send(ctx, mail); err != nil {
		// The token is already live; the caller decides whether to
		// resend or surface the delivery failure.
		logrus.WithError(err).WithField("email", email).Error("Failed to send invite mail")
		return invite, err
	}

	logrus.WithFields(logrus.Fields{
		"type":  inviteType,
		"email": email,
	}).Info("Invite issued")

	return invite, nil
}

// BuildActivationLink joins the configured base address with the token.
// The base is a startup-time invariant, but a misconfigured deployment
// must fail loudly here rather than mail out broken links.
func (s *inviteService) BuildActivationLink(token string) (string, error) {
	base, err := url.Parse(s.cfg.ActivationBase)
	if err != nil || !base.IsAbs() || base.Host == "" {
		logrus.WithField("base", s.cfg.ActivationBase).Error("Activation base is not an absolute URL")
		return "", models.ErrConfiguration
	}
	return fmt.Sprintf("%s/activate?token=%s", strings.TrimRight(base.String(), "/"), url.QueryEscape(token)), nil
}

// ComposeMessage picks wording by invite type. It never fails: an
// unrecognized type gets the generic wording.
func (s *inviteService) ComposeMessage(inviteType, inviterEmail, activationLink string) *Message {
	var subject, intro string
	switch inviteType {
	case TypeAttorneyOwner:
		subject = "You have been invited to manage your practice on CaseHub"
		intro = fmt.Sprintf("%s has invited you to set up your firm's workspace.", inviterEmail)
	case TypeClientOwner:
		subject = "Your attorney has invited you to CaseHub"
		intro = fmt.Sprintf("%s has invited you to collaborate on your estate plan.", inviterEmail)
	default:
		subject = "You have been invited to CaseHub"
		intro = fmt.Sprintf("%s has invited you to CaseHub.", inviterEmail)
	}

	text := fmt.Sprintf("%s\n\nActivate your account: %s\n\nThis link is valid for a limited time and can be used once.", intro, activationLink)
	html := fmt.Sprintf(
		"<p>%s</p><p><a href=%q>Activate your account</a></p><p>This link is valid for a limited time and can be used once.</p>",
		intro, activationLink,
	)

	return &Message{Subject: subject, Text: text, HTML: html}
}

// Accept consumes the token and activates the account. Unknown, expired,
// and already-consumed tokens all fail with the same error so the
// response leaks nothing about the token's lifecycle. A missing password
// is a validation failure, reported before the token is consumed so the
// invite stays usable. Session creation is the caller's follow-up step;
// a crash in between leaves the user activated but logged out, never
// half-activated.
func (s *inviteService) Accept(ctx context.Context, token, password string) (*credential.User, error) {
	if token == "" {
		return nil, models.ErrInvalidOrExpiredToken
	}
	if password == "" {
		return nil, models.ErrPasswordRequired
	}

	invite, err := s.repository.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, models.ErrInvalidOrExpiredToken
	}

	user, err := s.credentials.FindByEmail(ctx, invite.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logrus.WithField("email", invite.Email).Warn("Consumed invite points at a missing account")
		return nil, models.ErrInvalidOrExpiredToken
	}

	activated, err := s.credentials.SetPasswordAndActivate(ctx, user.ID, password)
	if err != nil {
		return nil, err
	}
	if activated == nil {
		// The account left pending some other way; the token is burned
		// either way.
		return nil, models.ErrInvalidOrExpiredToken
	}
	return activated, nil
}
