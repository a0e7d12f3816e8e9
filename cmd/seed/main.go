// Command seed loads or removes the reference catalog (categories, price
// bands and demo accounts) in the database the server is configured for.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/estate/internal/estate/app"
	"github.com/aussiebroadwan/estate/internal/estate/seed"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	doImport := flags.BoolP("import", "i", false, "insert the seed data")
	doPurge := flags.BoolP("purge", "e", false, "delete all categories and price bands")
	file := flags.String("file", "", "seed document (YAML); defaults to the built-in catalog")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: seed (-i | -e) [--file path]\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *doImport == *doPurge {
		flags.Usage()
		return 2
	}

	cfg := app.LoadConfig()
	logger := slogx.New(slogx.Config{
		Service: "estate-seed",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  "text",
	})
	cryptox.SetPepperPath(cfg.PepperFile)

	st, err := app.OpenStore(cfg)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		return 1
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()

	if *doPurge {
		if err := seed.Purge(ctx, st); err != nil {
			logger.Error("purge failed", slog.Any("error", err))
			return 1
		}
		logger.Info("catalog purged")
		return 0
	}

	data, err := seed.Load(*file)
	if err != nil {
		logger.Error("load seed data", slog.String("file", *file), slog.Any("error", err))
		return 1
	}
	res, err := seed.Import(ctx, st, data)
	if err != nil {
		logger.Error("import failed", slog.Any("error", err))
		return 1
	}
	logger.Info("seed data imported",
		slog.Int("categories", res.Categories),
		slog.Int("price_bands", res.PriceBands),
		slog.Int("users", res.Users),
	)
	return 0
}
