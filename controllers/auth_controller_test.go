package controllers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	db := newTestDB(t)
	r, _ := newTestRouter(t, db)

	register := strings.NewReader(`{"username":"alice","password":"secret123"}`)
	w := doRequest(r, http.MethodPost, "/api/auth/register", register, "application/json", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// duplicate username
	register = strings.NewReader(`{"username":"alice","password":"secret123"}`)
	w = doRequest(r, http.MethodPost, "/api/auth/register", register, "application/json", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// wrong password
	login := strings.NewReader(`{"username":"alice","password":"nope"}`)
	w = doRequest(r, http.MethodPost, "/api/auth/login", login, "application/json", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login = strings.NewReader(`{"username":"alice","password":"secret123"}`)
	w = doRequest(r, http.MethodPost, "/api/auth/login", login, "application/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)

	w = doRequest(r, http.MethodGet, "/api/auth/me", nil, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	// password hash never leaves the server
	_, leaked := user["password_hash"]
	assert.False(t, leaked)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	db := newTestDB(t)
	r, _ := newTestRouter(t, db)

	register := strings.NewReader(`{"username":"bob","password":"abc"}`)
	w := doRequest(r, http.MethodPost, "/api/auth/register", register, "application/json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
