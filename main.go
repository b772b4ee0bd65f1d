package main

import (
	"github.com/cppla/focusstreak/config"
	"github.com/cppla/focusstreak/routes"
	"github.com/cppla/focusstreak/store"
	"github.com/cppla/focusstreak/streak"
	"github.com/cppla/focusstreak/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	s, err := store.Open(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open %s record store: %v", cfg.StoreBackend, err)
	}
	defer s.Close()
	utils.Sugar.Infow("record store ready", "backend", cfg.StoreBackend)

	r := routes.SetupRouter(cfg, s, streak.SystemClock{})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}
