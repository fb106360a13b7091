package main

import (
	"errors"
	"fmt"
	"os"

	"sainmakosam/internal/config"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/seed"

	"github.com/spf13/cobra"
)

func runSeedUsers(cmd *cobra.Command, _ []string) error {
	if !seedConfirm {
		return errors.New("seed-users deletes every operator account; rerun with --yes to continue")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}

	file, err := seed.LoadFile(seedFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, db, err := config.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	users := repository.NewMongoUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	n, err := seed.Users(ctx, users, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeding complete: %d users created. Ready to log in!\n", n)
	return nil
}
