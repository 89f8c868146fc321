package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/common/testutil"
	"library-portal/pkg/core/profile/model"
	impl "library-portal/pkg/core/profile/repository/dao/impl"
	"library-portal/pkg/core/profile/service"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
)

type revokeCall struct {
	profileID string
	version   int
}

type recordingRevoker struct {
	calls []revokeCall
}

func (r *recordingRevoker) Revoke(_ context.Context, profileID string, version int) {
	r.calls = append(r.calls, revokeCall{profileID, version})
}

type fixture struct {
	svc     *service.ProfileService
	db      *gorm.DB
	revoker *recordingRevoker
	caller  session.Identity
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	revoker := &recordingRevoker{}
	svc := service.NewProfileService(impl.NewProfileRepository(db), validation.New(), revoker, bcrypt.MinCost)

	view, err := svc.Create(context.Background(), service.NewProfile{
		Name:     "Nguyễn Lan",
		Email:    "Lan@Library.vn",
		Phone:    "0912345678",
		Address:  "Hà Nội",
		Password: "old-secret",
		Role:     session.RoleReader,
	})
	require.NoError(t, err)

	return fixture{
		svc:     svc,
		db:      db,
		revoker: revoker,
		caller:  session.Identity{ProfileID: view.ID, Role: session.RoleReader, Version: 1},
	}
}

func storedProfile(t *testing.T, db *gorm.DB, id string) model.Profile {
	t.Helper()
	var p model.Profile
	require.NoError(t, db.Where("id = ?", id).Take(&p).Error)
	return p
}

func TestGet(t *testing.T) {
	f := setup(t)

	view, err := f.svc.Get(context.Background(), f.caller)
	require.NoError(t, err)
	assert.Equal(t, "lan@library.vn", view.Email)
	assert.Equal(t, "Nguyễn Lan", view.Name)
	assert.Equal(t, string(session.RoleReader), view.Role)
	assert.True(t, view.TotalFines.IsZero())
	assert.Zero(t, view.BorrowCount)

	_, err = f.svc.Get(context.Background(), session.Identity{ProfileID: "ghost", Role: session.RoleReader})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.caller, validation.ProfileInput{Name: "Lan", Phone: "12345", Address: "HN"})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "phone", appErr.Fields[0].Field)
	assert.Equal(t, "0912345678", *storedProfile(t, f.db, f.caller.ProfileID).Phone)

	view, err := f.svc.Update(ctx, f.caller, validation.ProfileInput{Name: " Trần Lan ", Address: "Đà Nẵng"})
	require.NoError(t, err)
	assert.Equal(t, "Trần Lan", view.Name)
	assert.Nil(t, view.Phone)
	require.NotNil(t, view.Address)
	assert.Equal(t, "Đà Nẵng", *view.Address)
	// email 不受影响
	assert.Equal(t, "lan@library.vn", view.Email)

	_, err = f.svc.Update(ctx, session.Identity{ProfileID: "ghost"}, validation.ProfileInput{Name: "x", Address: "y"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	before := storedProfile(t, f.db, f.caller.ProfileID)

	err := f.svc.ChangePassword(ctx, f.caller, validation.PasswordChangeInput{
		CurrentPassword: "wrong-secret", NewPassword: "new-secret", ConfirmPassword: "new-secret",
	})
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))

	err = f.svc.ChangePassword(ctx, f.caller, validation.PasswordChangeInput{
		CurrentPassword: "old-secret", NewPassword: "old-secret", ConfirmPassword: "old-secret",
	})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "newPassword", appErr.Fields[0].Field)

	unchanged := storedProfile(t, f.db, f.caller.ProfileID)
	assert.Equal(t, before.PasswordHash, unchanged.PasswordHash)
	assert.Equal(t, 1, unchanged.SessionVersion)
	assert.Empty(t, f.revoker.calls)

	require.NoError(t, f.svc.ChangePassword(ctx, f.caller, validation.PasswordChangeInput{
		CurrentPassword: "old-secret", NewPassword: "new-secret", ConfirmPassword: "new-secret",
	}))

	after := storedProfile(t, f.db, f.caller.ProfileID)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("new-secret")))
	assert.Equal(t, 2, after.SessionVersion)
	assert.Equal(t, []revokeCall{{f.caller.ProfileID, 2}}, f.revoker.calls)
}

func TestAuthenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id, err := f.svc.Authenticate(ctx, validation.LoginInput{Email: " LAN@library.vn", Password: "old-secret"})
	require.NoError(t, err)
	assert.Equal(t, f.caller, id)

	_, err = f.svc.Authenticate(ctx, validation.LoginInput{Email: "lan@library.vn", Password: "nope-nope"})
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))

	_, err = f.svc.Authenticate(ctx, validation.LoginInput{Email: "nobody@library.vn", Password: "old-secret"})
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))

	require.NoError(t, f.db.Model(&model.Profile{}).
		Where("id = ?", f.caller.ProfileID).
		Update("status", model.StatusLocked).Error)
	_, err = f.svc.Authenticate(ctx, validation.LoginInput{Email: "lan@library.vn", Password: "old-secret"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), service.NewProfile{
		Name: "Other", Email: "lan@library.vn", Password: "another-pass", Role: session.RoleLibrarian,
	})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, "email", appErr.Fields[0].Field)

	_, err = f.svc.Create(context.Background(), service.NewProfile{
		Name: "Other", Email: "x@library.vn", Password: "short", Role: "janitor",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
