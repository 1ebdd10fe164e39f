package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codeby/softmarket/config"
	"github.com/codeby/softmarket/middleware"
	"github.com/codeby/softmarket/models"
	"github.com/codeby/softmarket/storage"
	"github.com/codeby/softmarket/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	cfg := config.Load()
	_ = utils.InitLogger(cfg)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Software{}, &models.Purchase{}))
	return db
}

// newTestRouter wires the same routes as routes.SetupRouter without the
// access-log file sink.
func newTestRouter(t *testing.T, db *gorm.DB) (*gin.Engine, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	cfg := config.Get()
	authController := NewAuthController(db)
	softwareController := NewSoftwareController(db, store, cfg)
	purchaseController := NewPurchaseController(db)

	r := gin.New()
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	software := api.Group("/software")
	software.GET("/list", softwareController.List)
	software.GET("/:id", softwareController.Get)
	software.POST("/upload", middleware.AuthRequired(), softwareController.Upload)
	software.PUT("/update/:id", middleware.AuthRequired(), softwareController.Update)
	software.DELETE("/delete/:id", middleware.Identity(), softwareController.Delete)
	software.GET("/my-uploads", middleware.AuthRequired(), softwareController.MyUploads)
	software.GET("/my-purchases", middleware.AuthRequired(), purchaseController.MyPurchases)
	software.POST("/purchase/:softwareId", middleware.AuthRequired(), purchaseController.Purchase)
	software.GET("/debug/:id", middleware.AuthRequired(), softwareController.Debug)

	return r, store
}

func createUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) (models.User, string) {
	t.Helper()
	user := models.User{Username: username, IsAdmin: isAdmin}
	require.NoError(t, db.Create(&user).Error)
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return user, token
}

func multipartForm(t *testing.T, fields map[string]string, files map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("payload for " + field))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return bytes.NewReader(buf.Bytes()), w.FormDataContentType()
}

func doRequest(r http.Handler, method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// uploadListing pushes a valid listing through the upload endpoint and returns its id.
func uploadListing(t *testing.T, r http.Handler, token, title, price string) uint {
	t.Helper()
	body, ct := multipartForm(t,
		map[string]string{"title": title, "price": price},
		map[string]string{"video": "demo.mp4", "zipFile": "release.zip"},
	)
	w := doRequest(r, http.MethodPost, "/api/software/upload", body, ct, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	software := env.Data["software"].(map[string]any)
	return uint(software["id"].(float64))
}
