package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/app"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/config"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/logger"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/poller"
)

// handleInvocation runs one poll pass per scheduled invocation. The bbolt
// store does not survive between cold starts, so lambda deployments usually
// set STORAGE_TYPE=none or point BBOLT_PATH at a mounted volume.
func handleInvocation(ctx context.Context) (poller.Stats, error) {
	cfg, err := config.Load()
	if err != nil {
		return poller.Stats{}, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return poller.Stats{}, fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	p, err := app.NewPoller(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize poller", "error", err)
		return poller.Stats{}, err
	}
	defer p.Close()

	stats, err := p.RunOnce(ctx)
	if err != nil {
		logger.ErrorObj("poll pass failed", "error", err)
		return stats, fmt.Errorf("poll pass: %w", err)
	}
	return stats, nil
}

func main() {
	lambda.Start(handleInvocation)
}
