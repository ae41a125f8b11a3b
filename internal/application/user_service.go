package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/go-user-management/internal/domain/access"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	repo "github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

const (
	minPasswordLength = 6
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// PasswordHasher hashes and verifies passwords. Verify never errors: a malformed hash is a mismatch.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer mints identity tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Identity is the authenticated caller, produced by token verification at the boundary.
type Identity struct {
	UserID string
}

type RegisterInput struct {
	FullName    string
	DateOfBirth string
	Email       string
	Password    string
	Role        string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      entity.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"-"`
}

type Service struct {
	Repo   repo.UserRepository
	Hasher PasswordHasher
	Tokens TokenIssuer
	Events EventPublisher
	Search UserSearcher
	Logger *logrus.Logger

	now       func() time.Time
	validate  *validator.Validate
	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the user service. events and search may be nil.
func NewService(repo repo.UserRepository, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, search UserSearcher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{
		Repo:     repo,
		Hasher:   hasher,
		Tokens:   tokens,
		Events:   events,
		Search:   search,
		Logger:   logger,
		now:      time.Now,
		validate: validator.New(),
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDateOfBirth accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar date.
func ParseDateOfBirth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *Service) validateRegister(in RegisterInput) (time.Time, entity.Role, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.FullName) == "" {
		fields["fullName"] = "is required"
	}
	dob, err := ParseDateOfBirth(in.DateOfBirth)
	if err != nil {
		fields["dateOfBirth"] = "must be a valid date"
	}
	if s.validate.Var(NormalizeEmail(in.Email), "required,email") != nil {
		fields["email"] = "must be a valid email"
	}
	switch {
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		fields["password"] = fmt.Sprintf("must be at least %d characters long", minPasswordLength)
	case len(in.Password) > helpers.MaxPasswordBytes:
		fields["password"] = fmt.Sprintf("must be at most %d bytes long", helpers.MaxPasswordBytes)
	}
	role := entity.RoleUser
	if in.Role != "" {
		role = entity.Role(in.Role)
		if !role.Valid() {
			fields["role"] = "must be one of: admin, user"
		}
	}
	if len(fields) > 0 {
		return time.Time{}, "", &ValidationError{Fields: fields}
	}
	return dob, role, nil
}

// Register creates an active account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	dob, role, err := s.validateRegister(in)
	if err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	existing, err := s.findOptional(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Repo.Insert(ctx, &entity.User{
		ID:          uuid.NewString(),
		FullName:    strings.TrimSpace(in.FullName),
		DateOfBirth: dob,
		Email:       email,
		Password:    hash,
		Role:        role,
		IsActive:    true,
	})
	if err != nil {
		// the unique index catches registrations racing past the pre-check
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	res, err := s.authResult(u)
	if err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	s.publish(ctx, EventUserRegistered, u)
	return res, nil
}

// Login checks credentials. Unknown email and wrong password yield the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	u, err := s.findOptional(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByEmail(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		// spend a comparable amount of time on unknown emails
		s.Hasher.Verify(password, s.placeholderHash())
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, u.Password) {
		s.Logger.WithField("user_id", u.ID).Info("login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.Logger.WithField("user_id", u.ID).Info("login rejected: account blocked")
		return nil, ErrAccountBlocked
	}
	return s.authResult(u)
}

// GetUserByID returns the target's public view if the requester may see it.
func (s *Service) GetUserByID(ctx context.Context, targetID string, requester Identity) (*entity.PublicUser, error) {
	req, target, err := s.resolve(ctx, requester.UserID, targetID)
	if err != nil {
		return nil, err
	}
	if !access.CanView(req, targetID) {
		s.Logger.WithFields(logrus.Fields{"requester_id": req.ID, "target_id": targetID}).Warn("view denied")
		return nil, ErrAccessDenied
	}
	pub := target.Public()
	return &pub, nil
}

// ListAllUsers returns every user for an admin requester.
func (s *Service) ListAllUsers(ctx context.Context, requester Identity) ([]entity.PublicUser, error) {
	if _, err := s.requireListAll(ctx, requester); err != nil {
		return nil, err
	}
	users, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return entity.PublicUsers(users), nil
}

// SearchUsers queries the search index for an admin requester.
func (s *Service) SearchUsers(ctx context.Context, requester Identity, query string, size int) ([]entity.PublicUser, error) {
	if _, err := s.requireListAll(ctx, requester); err != nil {
		return nil, err
	}
	switch {
	case size <= 0:
		size = defaultSearchSize
	case size > maxSearchSize:
		size = maxSearchSize
	}
	if s.Search == nil {
		return []entity.PublicUser{}, nil
	}
	out, err := s.Search.Search(ctx, strings.TrimSpace(query), size)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}

// BlockUser deactivates the target. Blocking an inactive account is a successful no-op.
func (s *Service) BlockUser(ctx context.Context, targetID string, requester Identity) (*entity.PublicUser, error) {
	req, target, err := s.resolve(ctx, requester.UserID, targetID)
	if err != nil {
		return nil, err
	}
	if !access.CanBlock(req, targetID) {
		s.Logger.WithFields(logrus.Fields{"requester_id": req.ID, "target_id": targetID}).Warn("block denied")
		return nil, ErrAccessDenied
	}
	if !target.IsActive {
		pub := target.Public()
		return &pub, nil
	}

	inactive := false
	updated, err := s.Repo.Update(ctx, targetID, repo.UserPatch{IsActive: &inactive})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("block user: %w", err)
	}
	s.Logger.WithFields(logrus.Fields{"requester_id": req.ID, "target_id": targetID}).Info("user blocked")
	s.publish(ctx, EventUserBlocked, updated)

	pub := updated.Public()
	return &pub, nil
}

func (s *Service) requireListAll(ctx context.Context, requester Identity) (*entity.User, error) {
	req, err := s.findOptional(ctx, func(ctx context.Context) (*entity.User, error) {
		return s.Repo.FindByID(ctx, requester.UserID)
	})
	if err != nil {
		return nil, err
	}
	if !access.CanListAll(req) {
		return nil, ErrAccessDenied
	}
	return req, nil
}

// resolve loads requester and target concurrently.
func (s *Service) resolve(ctx context.Context, requesterID, targetID string) (*entity.User, *entity.User, error) {
	var req, target *entity.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.findOptional(gctx, func(ctx context.Context) (*entity.User, error) {
			return s.Repo.FindByID(ctx, requesterID)
		})
		req = u
		return err
	})
	g.Go(func() error {
		u, err := s.findOptional(gctx, func(ctx context.Context) (*entity.User, error) {
			return s.Repo.FindByID(ctx, targetID)
		})
		target = u
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, ErrRequesterNotFound
	}
	if target == nil {
		return nil, nil, ErrUserNotFound
	}
	return req, target, nil
}

// findOptional turns repo.ErrNotFound into a nil user.
func (s *Service) findOptional(ctx context.Context, find func(context.Context) (*entity.User, error)) (*entity.User, error) {
	u, err := find(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Service) authResult(u *entity.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue token failed")
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u.Public(), Token: token, ExpiresAt: exp}, nil
}

func (s *Service) publish(ctx context.Context, typ string, u *entity.User) {
	if s.Events == nil {
		return
	}
	evt := UserEvent{Type: typ, User: u.Public(), OccurredAt: s.now().UTC()}
	if err := s.Events.Publish(ctx, evt); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"event": typ, "user_id": u.ID}).Warn("publish user event failed")
	}
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}
