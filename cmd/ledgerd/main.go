package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/common"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if err := newRootCmd().Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
