package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

var (
	created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dob     = time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
)

func userDoc(id, email, role string, active bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "fullName", Value: "Jane Doe"},
		{Key: "dateOfBirth", Value: dob},
		{Key: "email", Value: email},
		{Key: "passwordHash", Value: "$2a$10$hash"},
		{Key: "role", Value: role},
		{Key: "isActive", Value: active},
		{Key: "createdAt", Value: created},
		{Key: "updatedAt", Value: created},
	}
}

func newRepo(mt *mtest.T) *UserRepository {
	r := NewUserRepository(mt.DB, time.Second)
	r.now = func() time.Time { return created }
	return r
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Insert", func(mt *mtest.T) {
		r := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := r.Insert(ctx, &entity.User{ID: "u1", FullName: "Jane", DateOfBirth: dob, Email: "jane@x.com", Password: "h", Role: entity.RoleUser, IsActive: true})
		require.NoError(mt, err)
		assert.Equal(mt, created, got.CreatedAt)
		assert.Equal(mt, created, got.UpdatedAt)
	})

	mt.Run("InsertDuplicate", func(mt *mtest.T) {
		r := newRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: users_email_key",
		}))

		_, err := r.Insert(ctx, &entity.User{ID: "u2", Email: "jane@x.com"})
		assert.ErrorIs(mt, err, repository.ErrDuplicateEmail)
	})

	mt.Run("FindByEmail", func(mt *mtest.T) {
		r := newRepo(mt)
		ns := mt.DB.Name() + "." + collectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc("u1", "jane@x.com", "admin", true)))

		got, err := r.FindByEmail(ctx, "jane@x.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", got.ID)
		assert.Equal(mt, entity.RoleAdmin, got.Role)
		assert.Equal(mt, "$2a$10$hash", got.Password)
		assert.Equal(mt, dob, got.DateOfBirth)
	})

	mt.Run("FindByIDMissing", func(mt *mtest.T) {
		r := newRepo(mt)
		ns := mt.DB.Name() + "." + collectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := r.FindByID(ctx, "ghost")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("ListAll", func(mt *mtest.T) {
		r := newRepo(mt)
		ns := mt.DB.Name() + "." + collectionName
		first := userDoc("u1", "a@x.com", "admin", true)[:3]
		second := bson.D{{Key: "_id", Value: "u2"}, {Key: "email", Value: "b@x.com"}, {Key: "role", Value: "user"}}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, first),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, second),
		)

		users, err := r.ListAll(ctx)
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "u1", users[0].ID)
		assert.Equal(mt, entity.RoleUser, users[1].Role)
		assert.Empty(mt, users[0].Password)
	})

	mt.Run("Update", func(mt *mtest.T) {
		r := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDoc("u1", "jane@x.com", "user", false)}))

		inactive := false
		got, err := r.Update(ctx, "u1", repository.UserPatch{IsActive: &inactive})
		require.NoError(mt, err)
		assert.False(mt, got.IsActive)
	})

	mt.Run("CountAndDeleteAll", func(mt *mtest.T) {
		r := newRepo(mt)
		ns := mt.DB.Name() + "." + collectionName
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}),
		)

		n, err := r.Count(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)

		deleted, err := r.DeleteAll(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), deleted)
	})

	mt.Run("EnsureIndexes", func(mt *mtest.T) {
		r := newRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, r.EnsureIndexes(ctx))
	})
}
