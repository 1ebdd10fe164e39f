package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codeby/softmarket/config"
	"github.com/codeby/softmarket/middleware"
	"github.com/codeby/softmarket/models"
	"github.com/codeby/softmarket/storage"
	"github.com/codeby/softmarket/utils"
)

// SoftwareController manages the listing lifecycle: upload, update, delete and reads.
type SoftwareController struct {
	db            *gorm.DB
	store         *storage.Store
	maxVideoBytes int64
	maxZipBytes   int64
}

// NewSoftwareController creates a new SoftwareController instance. The file
// store and size limits are injected here instead of being read ambiently.
func NewSoftwareController(db *gorm.DB, store *storage.Store, cfg config.AppConfig) *SoftwareController {
	return &SoftwareController{
		db:            db,
		store:         store,
		maxVideoBytes: int64(cfg.UploadMaxVideoMB) * 1024 * 1024,
		maxZipBytes:   int64(cfg.UploadMaxZipMB) * 1024 * 1024,
	}
}

// Upload creates a new listing from multipart fields title, video, zipFile and price.
// Validation is checked in a fixed order so the first reported violation is deterministic.
func (s *SoftwareController) Upload(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "title is required")
		return
	}

	video, videoHeader, err := ctx.Request.FormFile("video")
	if err != nil || videoHeader.Size == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "demo video is required")
		return
	}
	defer video.Close()

	zipFile, zipHeader, err := ctx.Request.FormFile("zipFile")
	if err != nil || zipHeader.Size == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "zip file is required")
		return
	}
	defer zipFile.Close()

	price, err := strconv.ParseFloat(ctx.PostForm("price"), 64)
	if err != nil || price <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40013, "valid price is required")
		return
	}

	videoURL, err := s.store.Save(video, videoHeader.Filename, s.maxVideoBytes)
	if err != nil {
		s.failStore(ctx, 50010, "failed to store demo video", err)
		return
	}

	zipURL, err := s.store.Save(zipFile, zipHeader.Filename, s.maxZipBytes)
	if err != nil {
		// Roll back the already stored video so no orphan survives a partial upload
		_ = s.store.Delete(videoURL)
		s.failStore(ctx, 50011, "failed to store zip file", err)
		return
	}

	software := models.Software{
		Title:      title,
		VideoURL:   videoURL,
		ZipURL:     zipURL,
		Price:      price,
		UploadedBy: username,
	}

	if err := s.db.Create(&software).Error; err != nil {
		_ = s.store.Delete(videoURL)
		_ = s.store.Delete(zipURL)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create software")
		return
	}

	utils.Sugar.Infof("software %d uploaded by %s", software.ID, username)
	utils.InvalidateByPrefix("cache:software:")
	utils.Success(ctx, gin.H{"software": software})
}

// Update modifies a listing's fields. Each field is optional; a blank title or
// non-positive price is silently ignored. Only the owner or an admin may update.
func (s *SoftwareController) Update(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	id := ctx.Param("id")
	var software models.Software
	if err := s.db.First(&software, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "software not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load software")
		return
	}

	isOwner := software.UploadedBy != "" && software.UploadedBy == username
	if !isOwner && !isAdminUser(s.db, username) {
		utils.Error(ctx, http.StatusForbidden, 40301, "not authorized to update this software")
		return
	}

	if title := strings.TrimSpace(ctx.PostForm("title")); title != "" {
		software.Title = title
	}
	if raw := ctx.PostForm("price"); raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err == nil && price > 0 {
			software.Price = price
		}
	}

	if video, header, err := ctx.Request.FormFile("video"); err == nil && header.Size > 0 {
		defer video.Close()
		url, err := s.replaceFile(software.VideoURL, video, header, s.maxVideoBytes)
		if err != nil {
			s.failStore(ctx, 50015, "failed to replace demo video", err)
			return
		}
		software.VideoURL = url
	}

	if zipFile, header, err := ctx.Request.FormFile("zipFile"); err == nil && header.Size > 0 {
		defer zipFile.Close()
		url, err := s.replaceFile(software.ZipURL, zipFile, header, s.maxZipBytes)
		if err != nil {
			s.failStore(ctx, 50016, "failed to replace zip file", err)
			return
		}
		software.ZipURL = url
	}

	if err := s.db.Save(&software).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to update software")
		return
	}

	utils.InvalidateByPrefix("cache:software:")
	utils.Success(ctx, gin.H{"software": software})
}

// replaceFile deletes the old stored file and saves the new payload. The old
// delete failing (other than not-found) aborts before anything is written so
// the row is left untouched.
func (s *SoftwareController) replaceFile(oldURL string, src multipart.File, header *multipart.FileHeader, limit int64) (string, error) {
	if err := s.store.Delete(oldURL); err != nil {
		return "", err
	}
	return s.store.Save(src, header.Filename, limit)
}

// Delete removes a listing and its backing files. Admin only; the row is never
// deleted while file cleanup is failing, so rows and files cannot drift apart.
func (s *SoftwareController) Delete(ctx *gin.Context) {
	username, _ := getUsername(ctx)
	if !isAdminUser(s.db, username) {
		utils.Error(ctx, http.StatusForbidden, 40302, "admin access required")
		return
	}

	id := ctx.Param("id")
	var software models.Software
	if err := s.db.First(&software, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "software not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to load software")
		return
	}

	if err := s.store.Delete(software.VideoURL); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50019, "failed to delete files")
		return
	}
	if err := s.store.Delete(software.ZipURL); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50019, "failed to delete files")
		return
	}

	if err := s.db.Delete(&software).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to delete software")
		return
	}

	utils.Sugar.Infof("software %d deleted by admin %s", software.ID, username)
	utils.InvalidateByPrefix("cache:software:")
	utils.Success(ctx, gin.H{"message": "software deleted"})
}

// List returns all listings (the public marketplace page).
func (s *SoftwareController) List(ctx *gin.Context) {
	const cacheKey = "cache:software:list"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var items []models.Software
	if err := s.db.Order("created_at DESC").Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list software")
		return
	}

	payload := gin.H{"items": items}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// Get returns a single listing by id.
func (s *SoftwareController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	cacheKey := "cache:software:detail:" + id
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var software models.Software
	if err := s.db.First(&software, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "software not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load software")
		return
	}

	payload := gin.H{"software": software}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// MyUploads returns the authenticated user's listings.
func (s *SoftwareController) MyUploads(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	var items []models.Software
	if err := s.db.Where("uploaded_by = ?", username).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list uploads")
		return
	}

	utils.Success(ctx, gin.H{"items": items})
}

// Debug reports ownership and admin flags for a listing, for diagnosing
// authorization decisions.
func (s *SoftwareController) Debug(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	var software models.Software
	if err := s.db.First(&software, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "software not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load software")
		return
	}

	isOwner := software.UploadedBy != "" && software.UploadedBy == username
	isAdmin := isAdminUser(s.db, username)

	utils.Success(ctx, gin.H{
		"software_id":    software.ID,
		"software_title": software.Title,
		"uploaded_by":    software.UploadedBy,
		"current_user":   username,
		"is_owner":       isOwner,
		"is_admin":       isAdmin,
		"can_edit":       isOwner || isAdmin,
	})
}

// failStore maps a storage failure to the right status: size violations are
// the client's fault, everything else is a server-side storage error.
func (s *SoftwareController) failStore(ctx *gin.Context, code int, message string, err error) {
	if errors.Is(err, storage.ErrFileTooLarge) {
		utils.Error(ctx, http.StatusBadRequest, 40014, "uploaded file exceeds size limit")
		return
	}
	utils.Sugar.Errorf("%s: %v", message, err)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}

func getUsername(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return "", false
	}
	username, _ := value.(string)
	if username == "" {
		return "", false
	}
	return username, true
}

// isAdminUser resolves the identity against the users table; unknown or
// anonymous identities are never admins.
func isAdminUser(db *gorm.DB, username string) bool {
	if username == "" {
		return false
	}
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return false
	}
	return user.IsAdmin
}
