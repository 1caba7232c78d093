package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/config"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"github.com/rnbmx/bmxshop/internal/shopctl"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	open := func(ctx context.Context) (*sql.DB, repomanager.RepositoryManager, error) {
		db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return db, repomanager.NewPostgresRepositoryManager(), nil
	}

	tool := shopctl.New(open, auth.NewBcryptHasher(cfg.BcryptCost), os.Stdout, os.Stderr)
	os.Exit(tool.Run(ctx, os.Args[1:]))

}
