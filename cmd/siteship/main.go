package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"siteship/internal/common"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		common.Error(err.Error())
		os.Exit(1)
	}
}
