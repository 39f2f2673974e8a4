package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	reconciler "payment_reconciler"
	"payment_reconciler/pkg/handler"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the webhook receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
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

			h := handler.NewHandler(svc, []byte(secret), viper.GetStringSlice("cors.origins"))
			srv := new(reconciler.Server)

			errCh := make(chan error, 1)
			go func() {
				logrus.Infof("Сервер запущен на порту %s", viper.GetString("port"))
				if err := srv.Run(viper.GetString("port"), h.InitRoute()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				logrus.Errorf("Ошибка при запуске сервера: %s", err)
				return err
			}

			logrus.Info("Остановка сервера")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logrus.Errorf("Ошибка при остановке сервера: %s", err)
			}

			// уведомления уже подтверждены, дожидаемся их обработки
			svc.Wait()
			logrus.Info("Сервер остановлен")
			return nil
		},
	}
}
