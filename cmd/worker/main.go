package main

import (
	"context"
	"log"

	"github.com/healthbridge/udd/internal/config"
	"github.com/healthbridge/udd/internal/intake"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := intake.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
