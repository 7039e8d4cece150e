package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/premiumshop-backend/internal/app"
	"github.com/baharkarakas/premiumshop-backend/internal/auth"
	"github.com/baharkarakas/premiumshop-backend/internal/catalog"
	"github.com/baharkarakas/premiumshop-backend/internal/config"
	"github.com/baharkarakas/premiumshop-backend/internal/db"
	"github.com/baharkarakas/premiumshop-backend/internal/logger"
	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "Admin tasks for the PremiumShop backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(catalogCmd())

	return rootCmd
}

func migrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations to DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				versions, err := db.Migrations()
				if err != nil {
					return err
				}
				for _, v := range versions {
					fmt.Fprintln(out, v)
				}
				return nil
			}

			cfg := config.Load()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			applied, err := db.RunMigrations(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintln(out, "applied", v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list embedded migrations without connecting")

	return cmd
}

func sweepCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Drop pending top-ups older than the TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.StoreDriver != config.StorePostgres {
				return fmt.Errorf("sweep needs STORE_DRIVER=postgres, the memory store lives inside the server")
			}
			if ttl > 0 {
				cfg.PendingTopupTTL = ttl
			}
			log := logger.New(cfg.Env)

			repos, closeStore, err := app.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			pub := app.NewPublisher(cfg, log)
			defer func() { _ = pub.Close() }()

			wallet := services.NewWalletService(repos, nil, log)
			topups := services.NewTopupService(repos, wallet, app.NewProvider(cfg), pub, nil, log, app.TopupConfig(cfg))
			removed, err := topups.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d pending top-ups\n", len(removed))
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "override PENDING_TOPUP_TTL")

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash usable as DEMO_PASSWORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func catalogCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog [path]",
		Short: "Show the product file as checkout prices it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Load().CatalogPath
			if len(args) == 1 {
				path = args[0]
			}
			c, err := catalog.NewFileLoader(path).Load(cmd.Context())
			if err != nil {
				return err
			}

			type row struct {
				ID             int64  `json:"id"`
				Name           string `json:"name"`
				UnitPriceCents int64  `json:"unitPriceCents"`
			}
			rows := make([]row, 0, c.Len())
			for _, p := range c.Products() {
				rows = append(rows, row{ID: int64(p.ID), Name: p.Name, UnitPriceCents: catalog.UnitPriceCents(p)})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUNIT_CENTS")
			for _, r := range rows {
				flag := ""
				if r.UnitPriceCents <= 0 {
					flag = "\t(invalid price)"
				}
				fmt.Fprintf(tw, "%d\t%s\t%d%s\n", r.ID, r.Name, r.UnitPriceCents, flag)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}
