// Package account manages users: registration, login, role and status
// changes. Registration publishes UserCreated, and the default subscriber
// opens the user's wallet through the ledger.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rocketcoins/internal/domain"
	"rocketcoins/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

// WalletProvisioner opens and reads wallets. *ledger.Engine satisfies it.
type WalletProvisioner interface {
	CreateWallet(ctx context.Context, userID uint) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID uint) (*domain.Wallet, error)
}

// Service is the account workflow.
type Service struct {
	db       *gorm.DB
	wallets  WalletProvisioner
	log      logrus.FieldLogger
	validate *validator.Validate

	mu       sync.RWMutex
	handlers []Handler
}

// NewService builds the account workflow with wallet provisioning subscribed
// to UserCreated.
func NewService(db *gorm.DB, wallets WalletProvisioner, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Service{db: db, wallets: wallets, log: log, validate: validator.New()}
	s.Subscribe(s.provisionOnCreate)
	return s
}

// RegisterInput is the data needed to create a user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // optional, MEMBER when empty
}

func (s *Service) normalize(in RegisterInput) (domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, domain.NewValidationError("name", "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return domain.User{}, domain.NewValidationError("email", "a valid email is required")
	}
	if n := len(in.Password); n < minPasswordLen || n > maxPasswordLen {
		return domain.User{}, domain.NewValidationError("password",
			fmt.Sprintf("password must be %d-%d characters", minPasswordLen, maxPasswordLen))
	}
	role := domain.RoleMember
	if strings.TrimSpace(in.Role) != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return domain.User{}, err
		}
		role = r
	}
	return domain.User{Name: name, Email: email, Role: role, IsActive: true}, nil
}

// Register creates a user and publishes UserCreated. When a handler fails the
// committed user is still returned, together with an error matching
// domain.ErrWalletProvisioning, so the caller can retry ProvisionWallet.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	user, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateEmail
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateEmail
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"email": user.Email, "error": err.Error()}).Warn("Registration rejected")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")

	ev := UserCreated{UserID: user.ID, Email: user.Email, Role: user.Role, At: time.Now().UTC()}
	if err := s.publish(ctx, ev); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("UserCreated handling failed")
		return &user, fmt.Errorf("%w: %w", domain.ErrWalletProvisioning, err)
	}
	if w, err := s.wallets.GetWallet(ctx, user.ID); err == nil {
		user.Wallet = w
	}
	return &user, nil
}

// ProvisionWallet makes sure userID has a wallet. An existing wallet is
// returned as is.
func (s *Service) ProvisionWallet(ctx context.Context, userID uint) (*domain.Wallet, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	w, err := s.wallets.CreateWallet(ctx, userID)
	if errors.Is(err, domain.ErrDuplicateWallet) {
		return s.wallets.GetWallet(ctx, userID)
	}
	return w, err
}

// BackfillResult reports a BackfillWallets run.
type BackfillResult struct {
	Created int   `json:"created"`
	Total   int64 `json:"total_users"`
}

// BackfillWallets opens a wallet for every user that has none.
func (s *Service) BackfillWallets(ctx context.Context) (*BackfillResult, error) {
	db := s.db.WithContext(ctx)
	var res BackfillResult
	if err := db.Model(&domain.User{}).Count(&res.Total).Error; err != nil {
		return nil, err
	}
	var missing []uint
	if err := db.Model(&domain.User{}).
		Joins("LEFT JOIN wallets ON wallets.user_id = users.id").
		Where("wallets.id IS NULL").
		Order("users.id").
		Pluck("users.id", &missing).Error; err != nil {
		return nil, err
	}
	var errs []error
	for _, id := range missing {
		if _, err := s.ProvisionWallet(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		res.Created++
	}
	s.log.WithFields(logrus.Fields{"created": res.Created, "missing": len(missing), "total_users": res.Total}).Info("Wallet backfill finished")
	if len(errs) > 0 {
		return &res, fmt.Errorf("%w: %w", domain.ErrWalletProvisioning, errors.Join(errs...))
	}
	return &res, nil
}

// Login checks credentials and returns the user.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	return &user, nil
}

// Get returns a user with its wallet.
func (s *Service) Get(ctx context.Context, userID uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Preload("Wallet").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user with its wallet.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := s.db.WithContext(ctx).Preload("Wallet").Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole changes the role of userID.
func (s *Service) UpdateRole(ctx context.Context, userID uint, role string) (*domain.User, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, userID, "role", r); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "role": r}).Info("User role changed")
	return s.Get(ctx, userID)
}

// UpdateStatus activates or disables userID. Disabled users cannot log in.
func (s *Service) UpdateStatus(ctx context.Context, userID uint, active bool) (*domain.User, error) {
	if err := s.update(ctx, userID, "is_active", active); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "is_active": active}).Info("User status changed")
	return s.Get(ctx, userID)
}

func (s *Service) update(ctx context.Context, userID uint, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
