package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zabege/tg-rec-bot/internal/migrate"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InMemory() {
			return errors.New("DATABASE_URL is not set")
		}
		if err := migrate.Up(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InMemory() {
			return errors.New("DATABASE_URL is not set")
		}
		if err := migrate.Down(cfg.DatabaseURL, downSteps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", downSteps)
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.InMemory() {
			return errors.New("DATABASE_URL is not set")
		}
		v, dirty, ok, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
