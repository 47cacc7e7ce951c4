package repository

import (
	"context"
	"errors"
	"testing"

	"namethatobject/internal/models"
	"namethatobject/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "Carol", Email: "carol@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	byName, err := repo.GetByUsername(ctx, "Carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", byID.Email)

	taken, err := repo.UsernameTaken(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "CAROL@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.UsernameTaken(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = repo.GetByUsername(ctx, "dave")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_DuplicateIsValidationError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "erin", Email: "erin@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Username: "erin", Email: "other@example.com", Password: "x"})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestUserRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	profiles := NewProfileRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "frank")

	require.NoError(t, profiles.DeleteByUserID(ctx, user.ID))
	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err := repo.GetByID(ctx, user.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = repo.Delete(ctx, user.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProfileRepository_Update(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "grace")

	profile, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	profile.Bio = "collector of odd things"
	profile.Profession = "archivist"
	profile.Picture = "profile_pics/abc.png"
	require.NoError(t, repo.Update(ctx, profile))

	got, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "collector of odd things", got.Bio)
	assert.Equal(t, "archivist", got.Profession)
	assert.Equal(t, "profile_pics/abc.png", got.Picture)

	require.NoError(t, repo.DeleteByUserID(ctx, user.ID))
	_, err = repo.GetByUserID(ctx, user.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestRollbackOnError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(r Repos) error {
		if err := r.Users.Create(ctx, &models.User{Username: "heidi", Email: "heidi@example.com", Password: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	taken, err := store.Users.UsernameTaken(ctx, "heidi")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", gorm.ErrRecordNotFound, models.CodeNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, models.CodeValidation},
		{"pg duplicate", &pgconn.PgError{Code: "23505"}, models.CodeValidation},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: users.username"), models.CodeValidation},
		{"app error passes through", models.NewForbiddenError("nope"), models.CodeForbidden},
		{"anything else", errors.New("disk full"), models.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, models.ErrorCode(translate(tt.err, "User", 1)))
		})
	}
	assert.NoError(t, translate(nil, "User", 1))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%a\_b\%c\\d%`, likePattern(`A_b%c\d`))
}
