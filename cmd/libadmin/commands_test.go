package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library-portal/pkg/common/config"
	"library-portal/pkg/common/testutil"
	"library-portal/pkg/core/profile/model"
)

func testOpener(t *testing.T) (openDB, *gorm.DB) {
	db := testutil.NewDB(t)
	cfg := config.Default()
	cfg.Middleware.Security.BcryptCost = bcrypt.MinCost
	return func() (*config.Config, *gorm.DB, error) { return cfg, db, nil }, db
}

func run(t *testing.T, open openDB, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWith(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	open, _ := testOpener(t)
	out, err := run(t, open, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")
}

func TestProfileCreate(t *testing.T) {
	open, db := testOpener(t)

	out, err := run(t, open, "s3cret-pass\n",
		"profile", "create", "--name", "Admin", "--email", "Admin@Library.vn", "--role", "admin", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin admin@library.vn")

	var p model.Profile
	require.NoError(t, db.Where("email = ?", "admin@library.vn").Take(&p).Error)
	assert.Equal(t, "admin", p.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("s3cret-pass")))

	_, err = run(t, open, "s3cret-pass\n",
		"profile", "create", "--name", "Again", "--email", "admin@library.vn", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	_, err = run(t, open, "short\n",
		"profile", "create", "--name", "Weak", "--email", "weak@library.vn", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")

	_, err = run(t, open, "s3cret-pass\n",
		"profile", "create", "--name", "X", "--email", "x@library.vn", "--role", "root", "--password-stdin")
	require.Error(t, err)
}
