package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"payment_reconciler/pkg/repository"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables and indexes if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(context.Background(), db); err != nil {
				return err
			}
			logrus.Info("Схема применена")
			return nil
		},
	}
}
