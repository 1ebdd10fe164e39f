package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codeby/softmarket/models"
	"github.com/codeby/softmarket/utils"
)

// PurchaseController records purchases and lists them per user.
type PurchaseController struct {
	db *gorm.DB
}

// NewPurchaseController creates a new PurchaseController instance.
func NewPurchaseController(db *gorm.DB) *PurchaseController {
	return &PurchaseController{db: db}
}

// Purchase records a one-time purchase of a listing by the authenticated user.
// PricePaid snapshots the listing's current price; a later price change never
// touches recorded purchases. The lookups and the insert run in one
// transaction; each failure path writes its response and returns an error so
// the transaction rolls back.
func (p *PurchaseController) Purchase(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var purchase models.Purchase
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load user")
			}
			return err
		}

		var software models.Software
		if err := tx.First(&software, ctx.Param("softwareId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40411, "software not found")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load software")
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Purchase{}).
			Where("user_id = ? AND software_id = ?", user.ID, software.ID).
			Count(&existing).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to check purchases")
			return err
		}
		if existing > 0 {
			utils.Error(ctx, http.StatusConflict, 40910, "software already purchased")
			return gorm.ErrDuplicatedKey
		}

		purchase = models.Purchase{
			UserID:       user.ID,
			SoftwareID:   software.ID,
			PricePaid:    software.Price,
			PurchaseDate: time.Now(),
		}

		if err := tx.Create(&purchase).Error; err != nil {
			// Two concurrent purchases can both pass the check above; the unique
			// index on (user_id, software_id) decides, and the loser lands here.
			if isDuplicateErr(err) {
				utils.Error(ctx, http.StatusConflict, 40910, "software already purchased")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to record purchase")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return
	}

	utils.Sugar.Infof("purchase recorded: user %s bought software %d", username, purchase.SoftwareID)
	utils.Success(ctx, gin.H{"purchase": purchase})
}

// MyPurchases returns the authenticated user's purchases with their listings.
func (p *PurchaseController) MyPurchases(ctx *gin.Context) {
	username, ok := getUsername(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40115, "unauthorized")
		return
	}

	var user models.User
	if err := p.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load user")
		return
	}

	var purchases []models.Purchase
	if err := p.db.Preload("Software").Where("user_id = ?", user.ID).Find(&purchases).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to list purchases")
		return
	}

	utils.Success(ctx, gin.H{"items": purchases})
}

// isDuplicateErr detects unique constraint violations across drivers; gorm's
// TranslateError covers MySQL, the string checks cover dialects without a
// translator.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
