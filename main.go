package main

import (
	"github.com/codeby/softmarket/config"
	"github.com/codeby/softmarket/models"
	"github.com/codeby/softmarket/routes"
	"github.com/codeby/softmarket/storage"
	"github.com/codeby/softmarket/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Software{}, &models.Purchase{})

	// Probe the upload root once at boot so storage problems fail fast
	store, err := storage.New(cfg.UploadDir, cfg.UploadPublicPrefix)
	if err != nil {
		utils.Sugar.Fatalf("file store init failed: %v", err)
	}

	r := routes.SetupRouter(db, store)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
