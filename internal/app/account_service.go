package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	RoleStudent       = "student"
	MinPasswordLength = 8
	recentAssessments = 5
	demoNameAttempts  = 5
)

// AccountService manages accounts and the profile read model.
type AccountService struct {
	store AccountStore
	log   logrus.FieldLogger
	now   func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAccountService(store AccountStore, log logrus.FieldLogger) *AccountService {
	return &AccountService{
		store: store,
		log:   log,
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DemoLogin creates a throwaway student account with a default profile.
func (s *AccountService) DemoLogin(ctx context.Context) (domain.User, error) {
	var lastErr error
	for i := 0; i < demoNameAttempts; i++ {
		id := "demo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		user := domain.User{
			ID:        id,
			Email:     id + "@demo.local",
			Username:  fmt.Sprintf("StarExplorer%d", 100+s.intn(900)),
			Role:      RoleStudent,
			IsDemo:    true,
			CreatedAt: s.now(),
		}
		err := s.store.CreateUser(ctx, user, domain.NewProfile(user.ID, user.Username))
		if err == nil {
			s.log.WithField("user_id", user.ID).Info("demo user created")
			return user, nil
		}
		if !errors.Is(err, domain.ErrUsernameTaken) {
			return domain.User{}, err
		}
		lastErr = err
	}
	return domain.User{}, fmt.Errorf("create demo user: %w", lastErr)
}

// Register creates a password account.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return domain.User{}, fmt.Errorf("%w: username and email are required", domain.ErrInvalidRequest)
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidRequest, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		Role:         RoleStudent,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user, domain.NewProfile(user.ID, user.Username)); err != nil {
		return domain.User{}, err
	}
	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login checks a username/password pair. Demo accounts cannot log in.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) User(ctx context.Context, id string) (domain.User, error) {
	return s.store.UserByID(ctx, id)
}

// Profile returns the profile with its achievement count and recent history.
func (s *AccountService) Profile(ctx context.Context, userID string) (domain.ProfileView, error) {
	return s.store.ProfileView(ctx, userID, recentAssessments)
}

func (s *AccountService) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}
