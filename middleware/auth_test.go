package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeby/softmarket/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/whoami", AuthRequired(), func(ctx *gin.Context) {
		username, _ := ctx.Get(ContextUsernameKey)
		ctx.String(http.StatusOK, "%v", username)
	})
	return r
}

func get(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)

	r := protectedRouter()

	// missing, malformed and undecodable tokens are indistinguishable: all 401
	cases := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Basic abc",
		"no token":         "Bearer ",
		"garbage token":    "Bearer not-a-jwt",
		"truncated bearer": "Bearer" + token,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := get(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestIdentityPassesAnonymousThrough(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", Identity(), func(ctx *gin.Context) {
		username := ctx.GetString(ContextUsernameKey)
		ctx.String(http.StatusOK, "%s", username)
	})

	// anonymous and garbage tokens reach the handler with no identity set
	for name, header := range map[string]string{
		"missing header": "",
		"garbage token":  "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			w := get(r, header)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestResolveIdentity(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer "+token)

	userID, username, ok := ResolveIdentity(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 7, userID)
	assert.Equal(t, "alice", username)
}

func TestResolveIdentityExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", -time.Minute)
	require.NoError(t, err)

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("Authorization", "Bearer "+token)

	_, _, ok := ResolveIdentity(ctx)
	assert.False(t, ok)
}
