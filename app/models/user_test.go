package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIssueLoaderKey(t *testing.T) {
	u := &User{ID: 1}

	key, err := u.IssueLoaderKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	assert.True(t, strings.HasPrefix(key, "kfg_"))
	assert.NotEmpty(t, u.LoaderKeyHash)
	assert.NotEmpty(t, u.LoaderKeyPrefix)
	assert.NotNil(t, u.LoaderKeyCreatedAt)
	assert.Nil(t, u.LoaderKeyLastUsed)
	assert.True(t, u.HasActiveLoaderKey())
	assert.Equal(t, HashLoaderKey(key), u.LoaderKeyHash)
}

func TestUserIssueLoaderKeyRotates(t *testing.T) {
	u := &User{ID: 1}

	first, err := u.IssueLoaderKey()
	require.NoError(t, err)
	firstHash := u.LoaderKeyHash

	second, err := u.IssueLoaderKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, firstHash, u.LoaderKeyHash)
	assert.Equal(t, HashLoaderKey(second), u.LoaderKeyHash)
}

func TestUserRevokeLoaderKey(t *testing.T) {
	u := &User{ID: 99}
	_, err := u.IssueLoaderKey()
	require.NoError(t, err)

	u.RevokeLoaderKey()

	assert.False(t, u.HasActiveLoaderKey())
	assert.Equal(t, "", u.LoaderKeyHash)
	assert.Equal(t, "", u.LoaderKeyPrefix)
	assert.NotNil(t, u.LoaderKeyRevokedAt)
}

func TestCreateUserValidation(t *testing.T) {
	u, err := CreateUser("tester", "tester@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, STATUS_ACTIVE, u.Status)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))

	_, err = CreateUser("x", "not-an-email", "secret123")
	require.Error(t, err)
}
