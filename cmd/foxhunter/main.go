package main

import (
	"fmt"
	"os"

	"github.com/LeoCommon/foxhunter/internal/hunter"
	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"go.uber.org/zap"
)

func main() {
	app, err := hunter.Setup(config.ParseCLIFlags())
	if err != nil || app == nil {
		fmt.Printf("Initialization failed, error: %s\n", err)
		log.Sync()
		os.Exit(1)
	}

	EXIT_CODE := 0
	if err := app.Run(); err != nil {
		log.Error("foxhunter stopped with an error", zap.Error(err))
		EXIT_CODE = 1
	}

	app.Shutdown()

	log.Info("all receivers released, bye")
	os.Exit(EXIT_CODE)
}
