package main

import (
	"context"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/pkg/log"
)

func main() {
	undo, err := maxprocs.Set(maxprocs.Logger(log.S().Debugf))
	defer undo()
	if err != nil {
		log.L().Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.L().Error("scratchdump failed", zap.Error(err))
		_ = log.Sync()
		log.Cleanup()
		os.Exit(1)
	}
	_ = log.Sync()
	log.Cleanup()
}
