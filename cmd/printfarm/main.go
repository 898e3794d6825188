package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jnardiello/printfarmhq-sub002/internal/app"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

func main() {
	ctx, quit := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer quit()

	a, err := app.New(ctx)
	if err != nil {
		logger.Error(ctx,
			"❌ Failed to create an application",
			logger.ErrorF(err),
		)
		return
	}

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "❌ Inventory engine error", logger.ErrorF(err))
	}
}
