package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/clogkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/clogkeeper/internal/cli"
	"github.com/dmitrijs2005/clogkeeper/internal/config"
	"github.com/dmitrijs2005/clogkeeper/internal/filex"
	"github.com/dmitrijs2005/clogkeeper/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.DataDir = dir

	logger := logging.New(cfg.Level(), os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
