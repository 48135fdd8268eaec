package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Cooki-Backend/cmd/config"
	migration "Cooki-Backend/cmd/database/migrate"
	"Cooki-Backend/domain"
	"Cooki-Backend/internal/utils"
	"Cooki-Backend/pkg/receipt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cooki",
		Short: "Cooki shared pantry backend",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.LoadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}

	receiptCmd.AddCommand(importCmd)
	root.AddCommand(serveCmd, migrateCmd, receiptCmd)

	if err := root.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accessLog := utils.InitLogger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := config.ConnectDB()
		if err != nil {
			return errors.Wrap(err, "could not connect database")
		}

		services, err := config.NewServices(ctx, db)
		if err != nil {
			return errors.Wrap(err, "could not build services")
		}
		defer services.Close()

		app := config.NewApp(services, accessLog)

		go func() {
			<-ctx.Done()
			if err := app.Shutdown(); err != nil {
				log.Errorf("shutdown: %v", err)
			}
		}()

		addr := utils.GetConfigDefault("SERVER_ADDRESS", ":8080")
		log.Infow("server starting", "addr", addr)
		return app.Listen(addr)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger()

		db, err := config.ConnectDB()
		if err != nil {
			return errors.Wrap(err, "could not connect database")
		}
		return migration.Migrate(db)
	},
}

var receiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Receipt tools",
}

var (
	importUserID   string
	importPantryID string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Parse a local receipt and add its items to a pantry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger()
		ctx := cmd.Context()

		db, err := config.ConnectDB()
		if err != nil {
			return errors.Wrap(err, "could not connect database")
		}
		services, err := config.NewServices(ctx, db)
		if err != nil {
			return errors.Wrap(err, "could not build services")
		}
		defer services.Close()

		session, err := services.Pantry.ResolveSession(ctx, importUserID, importPantryID)
		if err != nil {
			return errors.Wrap(err, "could not resolve pantry")
		}

		res, err := services.Receipt.ImportReceipt(ctx, session, receipt.LocalFile{Path: args[0]})
		if err != nil {
			return errors.Wrapf(err, "could not import %s", args[0])
		}

		for _, it := range res.Saved {
			cmd.Printf("added %s (%v %s)\n", it.Title, it.Quantity.Value, it.Quantity.Unit)
		}
		for _, f := range res.Failed {
			cmd.Printf("skipped #%d %s: %s\n", f.Index, f.Title, f.Error)
		}
		cmd.Printf("scan %s: %d saved, %d failed\n", res.ScanID, len(res.Saved), len(res.Failed))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importUserID, "user", "u", "", "id of the user adding the items")
	importCmd.Flags().StringVarP(&importPantryID, "pantry", "p", "", "target pantry id (defaults to the user's current pantry)")
	_ = importCmd.MarkFlagRequired("user")

	importCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(importUserID); err != nil {
			return errors.Wrap(domain.ErrParseUUID, "--user")
		}
		return nil
	}
}
