package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	repo "github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

// MockUserRepository is a mock implementation of repo.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, patch repo.UserPatch) (*entity.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, evt UserEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// MockUserSearcher is a mock implementation of UserSearcher
type MockUserSearcher struct {
	mock.Mock
}

func (m *MockUserSearcher) Search(ctx context.Context, query string, size int) ([]entity.PublicUser, error) {
	args := m.Called(ctx, query, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PublicUser), args.Error(1)
}

type fixture struct {
	svc    *Service
	store  *memory.UserRepository
	tokens *helpers.JWTManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewUserRepository()
	tokens := helpers.NewJWTManager("test-secret", time.Hour)
	svc := NewService(store, helpers.NewPasswordHasher(bcrypt.MinCost), tokens, nil, nil, nil)
	return &fixture{svc: svc, store: store, tokens: tokens}
}

func (f *fixture) register(t *testing.T, email, role string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		FullName:    "Test User",
		DateOfBirth: "1990-05-20",
		Email:       email,
		Password:    "password123",
		Role:        role,
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		res := f.register(t, "  New.User@Example.com ", "")

		assert.NotEmpty(t, res.User.ID)
		assert.Equal(t, "new.user@example.com", res.User.Email)
		assert.Equal(t, entity.RoleUser, res.User.Role)
		assert.True(t, res.User.IsActive)
		assert.Equal(t, "1990-05-20", res.User.DateOfBirth)

		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, claims.UserID)

		stored, err := f.store.FindByID(ctx, res.User.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "password123", stored.Password)
		assert.True(t, helpers.CompareHashAndPassword(stored.Password, "password123"))
	})

	t.Run("ExplicitAdminRole", func(t *testing.T) {
		f := newFixture(t)
		res := f.register(t, "admin@x.com", "admin")
		assert.Equal(t, entity.RoleAdmin, res.User.Role)
	})

	t.Run("DuplicateEmailCaseInsensitive", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "A@x.com", "")
		_, err := f.svc.Register(ctx, RegisterInput{FullName: "Other", DateOfBirth: "1991-01-01", Email: "a@x.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		f := newFixture(t)
		cases := map[string]RegisterInput{
			"password":    {FullName: "X", DateOfBirth: "1990-01-01", Email: "x@x.com", Password: "12345"},
			"email":       {FullName: "X", DateOfBirth: "1990-01-01", Email: "not-an-email", Password: "123456"},
			"dateOfBirth": {FullName: "X", DateOfBirth: "yesterday", Email: "x@x.com", Password: "123456"},
			"fullName":    {FullName: " ", DateOfBirth: "1990-01-01", Email: "x@x.com", Password: "123456"},
			"role":        {FullName: "X", DateOfBirth: "1990-01-01", Email: "x@x.com", Password: "123456", Role: "root"},
		}
		for field, in := range cases {
			t.Run(field, func(t *testing.T) {
				_, err := f.svc.Register(ctx, in)
				require.ErrorIs(t, err, ErrValidationFailed)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, field)
			})
		}
		count, _ := f.store.Count(ctx)
		assert.Zero(t, count)
	})

	t.Run("PasswordLengthCountsCharacters", func(t *testing.T) {
		f := newFixture(t)
		// three characters, six bytes
		_, err := f.svc.Register(ctx, RegisterInput{FullName: "X", DateOfBirth: "1990-01-01", Email: "short@x.com", Password: "ééé"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "password")

		_, err = f.svc.Register(ctx, RegisterInput{FullName: "X", DateOfBirth: "1990-01-01", Email: "long@x.com", Password: "éééééé"})
		assert.NoError(t, err)
	})

	t.Run("RFC3339DateOfBirth", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Register(ctx, RegisterInput{FullName: "X", DateOfBirth: "1985-01-15T00:00:00Z", Email: "x@x.com", Password: "123456"})
		require.NoError(t, err)
		assert.Equal(t, "1985-01-15", res.User.DateOfBirth)
	})

	t.Run("InsertRaceMapsToDuplicate", func(t *testing.T) {
		m := new(MockUserRepository)
		svc := NewService(m, helpers.NewPasswordHasher(bcrypt.MinCost), helpers.NewJWTManager("s", time.Hour), nil, nil, nil)
		m.On("FindByEmail", mock.Anything, "race@x.com").Return(nil, repo.ErrNotFound).Once()
		m.On("Insert", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil, repo.ErrDuplicateEmail).Once()

		_, err := svc.Register(ctx, RegisterInput{FullName: "X", DateOfBirth: "1990-01-01", Email: "race@x.com", Password: "123456"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		m.AssertExpectations(t)
	})

	t.Run("StoreFailureIsNotDomainError", func(t *testing.T) {
		m := new(MockUserRepository)
		svc := NewService(m, helpers.NewPasswordHasher(bcrypt.MinCost), helpers.NewJWTManager("s", time.Hour), nil, nil, nil)
		m.On("FindByEmail", mock.Anything, "x@x.com").Return(nil, context.DeadlineExceeded).Once()

		_, err := svc.Register(ctx, RegisterInput{FullName: "X", DateOfBirth: "1990-01-01", Email: "x@x.com", Password: "123456"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
		m.AssertExpectations(t)
	})

	t.Run("PublishesEvent", func(t *testing.T) {
		f := newFixture(t)
		events := new(MockEventPublisher)
		f.svc.Events = events
		events.On("Publish", mock.Anything, mock.MatchedBy(func(e UserEvent) bool {
			return e.Type == EventUserRegistered && e.User.Email == "evt@x.com"
		})).Return(errors.New("broker down")).Once()

		// publish failures never fail the request
		f.register(t, "evt@x.com", "")
		events.AssertExpectations(t)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		reg := f.register(t, "real@x.com", "")

		res, err := f.svc.Login(ctx, "REAL@x.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, res.User.ID)

		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, claims.UserID)
	})

	t.Run("UnknownEmailAndWrongPasswordAreIndistinguishable", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "real@x.com", "")

		_, errUnknown := f.svc.Login(ctx, "nope@x.com", "anything")
		_, errWrong := f.svc.Login(ctx, "real@x.com", "wrongpass")
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.Equal(t, errUnknown, errWrong)
	})

	t.Run("BlockedAccount", func(t *testing.T) {
		f := newFixture(t)
		reg := f.register(t, "real@x.com", "")
		_, err := f.svc.BlockUser(ctx, reg.User.ID, Identity{UserID: reg.User.ID})
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, "real@x.com", "password123")
		assert.ErrorIs(t, err, ErrAccountBlocked)

		// a wrong password on a blocked account still reads as invalid credentials
		_, err = f.svc.Login(ctx, "real@x.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@x.com", "").User
	u2 := f.register(t, "u2@x.com", "").User
	admin := f.register(t, "admin@x.com", "admin").User

	t.Run("Self", func(t *testing.T) {
		got, err := f.svc.GetUserByID(ctx, u1.ID, Identity{UserID: u1.ID})
		require.NoError(t, err)
		assert.Equal(t, u1.ID, got.ID)
	})

	t.Run("OtherDenied", func(t *testing.T) {
		_, err := f.svc.GetUserByID(ctx, u2.ID, Identity{UserID: u1.ID})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		got, err := f.svc.GetUserByID(ctx, u2.ID, Identity{UserID: admin.ID})
		require.NoError(t, err)
		assert.Equal(t, u2.Email, got.Email)
	})

	t.Run("RequesterNotFound", func(t *testing.T) {
		_, err := f.svc.GetUserByID(ctx, u1.ID, Identity{UserID: "ghost"})
		assert.ErrorIs(t, err, ErrRequesterNotFound)
	})

	t.Run("TargetNotFound", func(t *testing.T) {
		_, err := f.svc.GetUserByID(ctx, "ghost", Identity{UserID: admin.ID})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestListAllUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@x.com", "").User
	admin := f.register(t, "admin@x.com", "admin").User

	users, err := f.svc.ListAllUsers(ctx, Identity{UserID: admin.ID})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.svc.ListAllUsers(ctx, Identity{UserID: u1.ID})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.ListAllUsers(ctx, Identity{UserID: "ghost"})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@x.com", "").User
	admin := f.register(t, "admin@x.com", "admin").User

	t.Run("NotConfigured", func(t *testing.T) {
		out, err := f.svc.SearchUsers(ctx, Identity{UserID: admin.ID}, "u1", 5)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("DelegatesWithClampedSize", func(t *testing.T) {
		cases := map[string]struct{ in, want int }{
			"default":   {0, defaultSearchSize},
			"negative":  {-3, defaultSearchSize},
			"in range":  {25, 25},
			"at max":    {maxSearchSize, maxSearchSize},
			"above max": {500, maxSearchSize},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				s := new(MockUserSearcher)
				f.svc.Search = s
				defer func() { f.svc.Search = nil }()
				s.On("Search", mock.Anything, "u1", tc.want).Return([]entity.PublicUser{u1}, nil).Once()

				out, err := f.svc.SearchUsers(ctx, Identity{UserID: admin.ID}, " u1 ", tc.in)
				require.NoError(t, err)
				assert.Equal(t, []entity.PublicUser{u1}, out)
				s.AssertExpectations(t)
			})
		}
	})

	t.Run("NonAdminDenied", func(t *testing.T) {
		_, err := f.svc.SearchUsers(ctx, Identity{UserID: u1.ID}, "x", 5)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestBlockUser(t *testing.T) {
	ctx := context.Background()

	t.Run("SelfBlockIsIdempotent", func(t *testing.T) {
		f := newFixture(t)
		u1 := f.register(t, "u1@x.com", "").User

		first, err := f.svc.BlockUser(ctx, u1.ID, Identity{UserID: u1.ID})
		require.NoError(t, err)
		assert.False(t, first.IsActive)

		second, err := f.svc.BlockUser(ctx, u1.ID, Identity{UserID: u1.ID})
		require.NoError(t, err)
		assert.False(t, second.IsActive)
		assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	})

	t.Run("UserCannotBlockOther", func(t *testing.T) {
		f := newFixture(t)
		u1 := f.register(t, "u1@x.com", "").User
		u2 := f.register(t, "u2@x.com", "").User

		_, err := f.svc.BlockUser(ctx, u2.ID, Identity{UserID: u1.ID})
		assert.ErrorIs(t, err, ErrAccessDenied)

		stored, err := f.store.FindByID(ctx, u2.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsActive)
	})

	t.Run("AdminBlocksOther", func(t *testing.T) {
		f := newFixture(t)
		events := new(MockEventPublisher)
		f.svc.Events = events
		events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		u1 := f.register(t, "u1@x.com", "").User
		admin := f.register(t, "admin@x.com", "admin").User

		got, err := f.svc.BlockUser(ctx, u1.ID, Identity{UserID: admin.ID})
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		// second block changes nothing and publishes nothing
		_, err = f.svc.BlockUser(ctx, u1.ID, Identity{UserID: admin.ID})
		require.NoError(t, err)

		var blocked int
		for _, c := range events.Calls {
			if c.Arguments.Get(1).(UserEvent).Type == EventUserBlocked {
				blocked++
			}
		}
		assert.Equal(t, 1, blocked)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		admin := f.register(t, "admin@x.com", "admin").User

		_, err := f.svc.BlockUser(ctx, "ghost", Identity{UserID: admin.ID})
		assert.ErrorIs(t, err, ErrUserNotFound)
		_, err = f.svc.BlockUser(ctx, admin.ID, Identity{UserID: "ghost"})
		assert.ErrorIs(t, err, ErrRequesterNotFound)
	})
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"password": "too short", "email": "bad"}}
	assert.Equal(t, "validation failed: email bad; password too short", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)
}
