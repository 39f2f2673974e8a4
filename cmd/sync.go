package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [payment-id]",
		Short: "Re-read one payment from the provider and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || paymentID <= 0 {
				return errors.Errorf("invalid payment id %q", args[0])
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc, cleanup, err := buildService(db)
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := svc.Sync(cmd.Context(), paymentID)
			if err != nil {
				return err
			}
			logrus.WithField("payment_id", t.PaymentID).Info("Платёж синхронизирован")

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		},
	}
}
