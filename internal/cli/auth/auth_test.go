package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCookiesRoundTrip(t *testing.T) {
	keyring.MockInit()

	in := []*http.Cookie{
		{Name: "portal_session", Value: "abc", Path: "/", HttpOnly: true},
	}
	require.NoError(t, SaveCookies("http://localhost:8080", in))

	out, err := LoadCookies("http://localhost:8080")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "portal_session", out[0].Name)
	assert.Equal(t, "abc", out[0].Value)
	assert.True(t, out[0].HttpOnly)

	_, err = LoadCookies("http://other:8080")
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
}

func TestLoadCookies_DropsExpired(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, SaveCookies("http://localhost:8080", []*http.Cookie{
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}))

	_, err := LoadCookies("http://localhost:8080")
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
}

func TestDeleteCookies(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, SaveCookies("http://localhost:8080", []*http.Cookie{{Name: "a", Value: "b"}}))
	require.NoError(t, DeleteCookies("http://localhost:8080"))
	require.NoError(t, DeleteCookies("http://localhost:8080"))

	_, err := LoadCookies("http://localhost:8080")
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
}
