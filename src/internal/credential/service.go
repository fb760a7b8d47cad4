package credential

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/models"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Create(ctx context.Context, email, password, firstName, lastName, role string) (*User, error)
	CreatePending(ctx context.Context, email, role, firmID, clientID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	VerifyPassword(plain, digest string) (bool, error)
	SetPasswordAndActivate(ctx context.Context, userID, password string) (*User, error)
	Update(ctx context.Context, id string, patch Patch) (*User, error)
	Stats(ctx context.Context) (*models.AccountStats, error)
}

type userService struct {
	repository Repository
	stats      StatsCache
	bcryptCost int
}

func NewUserService(repository Repository, stats StatsCache, cfg *config.Configuration) Service {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		repository: repository,
		stats:      stats,
		bcryptCost: cost,
	}
}

// NormalizeEmail lowercases and trims an address; email uniqueness is
// case-insensitive throughout.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *userService) Create(ctx context.Context, email, password, firstName, lastName, role string) (*User, error) {
	email = NormalizeEmail(email)

	existing, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:             uuid.NewString(),
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		Status:         StatusActive,
		PasswordDigest: string(digest),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repository.Insert(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    role,
	}).Info("User created")

	return user, nil
}

// CreatePending creates the account stub an invite points at: pending
// status, no digest until activation.
func (s *userService) CreatePending(ctx context.Context, email, role, firmID, clientID string) (*User, error) {
	email = NormalizeEmail(email)

	existing, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user := &User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		Status:    StatusPending,
		FirmID:    firmID,
		ClientID:  clientID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repository.FindByEmail(ctx, NormalizeEmail(email))
}

func (s *userService) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repository.FindByID(ctx, id)
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password both come back nil, nil so the boundary cannot tell them
// apart, let alone a caller probing for registered addresses.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repository.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordDigest == "" {
		return nil, nil
	}

	ok, err := s.VerifyPassword(password, user.PasswordDigest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if !user.IsActive() {
		return nil, models.ErrAccountNotActive
	}

	now := time.Now().UTC()
	if updated, err := s.repository.Update(ctx, user.ID, bson.M{"last_login_at": now}); err == nil && updated != nil {
		user = updated
	}

	return user, nil
}

// VerifyPassword compares a candidate against a stored digest. A mismatch
// is false, not an error; only a malformed digest errors.
func (s *userService) VerifyPassword(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, models.ErrCorruptCredential
}

// SetPasswordAndActivate is the activation flow's half of accepting an
// invite: hash the chosen password and flip pending to active in one
// write. A nil result means the account was not pending.
func (s *userService) SetPasswordAndActivate(ctx context.Context, userID, password string) (*User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return nil, err
	}

	user, err := s.repository.SetPasswordAndActivate(ctx, userID, string(digest))
	if err != nil {
		return nil, err
	}
	if user != nil {
		logrus.WithField("user_id", userID).Info("Account activated")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, patch Patch) (*User, error) {
	set := bson.M{}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Status != nil {
		if !isValidStatus(*patch.Status) {
			return nil, models.ErrInvalidStatus
		}
		set["status"] = *patch.Status
	}
	if len(set) == 0 {
		return s.repository.FindByID(ctx, id)
	}
	return s.repository.Update(ctx, id, set)
}

func (s *userService) Stats(ctx context.Context) (*models.AccountStats, error) {
	if s.stats != nil {
		if cached, err := s.stats.Get(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	total, err := s.repository.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repository.CountByStatus(ctx, StatusActive)
	if err != nil {
		return nil, err
	}
	pending, err := s.repository.CountByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	disabled, err := s.repository.CountByStatus(ctx, StatusDisabled)
	if err != nil {
		return nil, err
	}

	stats := &models.AccountStats{
		Total:    total,
		Active:   active,
		Pending:  pending,
		Disabled: disabled,
	}

	if s.stats != nil {
		if err := s.stats.Save(ctx, stats); err != nil {
			logrus.WithError(err).Warn("Failed to cache account stats")
		}
	}

	return stats, nil
}
