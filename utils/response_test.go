package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	Success(ctx, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var env JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Zero(t, env.Code)
	assert.Equal(t, "success", env.Message)
	assert.NotNil(t, env.Data)
}

func TestErrorEnvelopeOmitsData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	Error(ctx, http.StatusForbidden, 40302, "admin access required")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "data")
}
