package main

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/LuisTellezSirocco/sirocco-api-national/internal/config"
	"github.com/LuisTellezSirocco/sirocco-api-national/internal/logger"
	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries payloads only
	log, err := logger.InitWithSink(cfg, zapcore.Lock(os.Stderr))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	client := sirocco.New(cfg.SiroccoConfig(), sirocco.WithTimeout(cfg.HTTPTimeout), sirocco.WithLogger(log))

	root := newRootCmd(client)
	root.SetArgs(args)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root.Execute()
}
