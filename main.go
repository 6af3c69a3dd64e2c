package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/cmd"
	"github.com/0xDualCube/univ2-mev/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// no-op before the logger is initialized; cobra already printed the error
		utils.GetLogger().Error("Command failed", zap.Error(err))
		utils.CleanupLogger()
		os.Exit(1)
	}
}
