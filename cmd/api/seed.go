package main

import (
	"github.com/spf13/cobra"

	db "github.com/markdave123-py/docflow/internal/core/database"
	"github.com/markdave123-py/docflow/internal/seed"
	"github.com/markdave123-py/docflow/internal/services"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo users and sample documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := db.NewClient(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := seed.New(services.NewUserService(store, log), store, log).Run(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("seeded %d users and %d documents\n", res.UsersCreated, res.DocumentsCreated)
			return nil
		},
	}
}
