package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	rootCmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Reconciles provider payment notifications with claimed transfers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				logrus.Infof("Файл .env не загружен: %s", err)
			}
			if err := InitConfig(); err != nil {
				logrus.Errorf("Ошибка (viper) при инициализации конфига .yaml: %s", err)
				return err
			}
			if lvl, err := logrus.ParseLevel(viper.GetString("log.level")); err == nil {
				logrus.SetLevel(lvl)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
