package main

import (
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"payment_reconciler/pkg/cache"
	"payment_reconciler/pkg/events"
	"payment_reconciler/pkg/provider"
	"payment_reconciler/pkg/repository"
	"payment_reconciler/pkg/service"
	"payment_reconciler/pkg/utils"
)

// InitConfig reads configs/config.yaml. Any key can be overridden from the
// environment, "db.host" as DB_HOST.
func InitConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", "8000")
	viper.SetDefault("app.settle_delay", service.DefaultSettleDelay)
	viper.SetDefault("app.timezone", "America/Argentina/Buenos_Aires")
	viper.SetDefault("provider.base_url", provider.DefaultBaseURL)
	viper.SetDefault("provider.timeout", 15*time.Second)
	viper.SetDefault("provider.retry_count", 2)
	viper.SetDefault("kafka.topic", "reconciler.events")
	viper.SetDefault("log.level", "info")

	return viper.ReadInConfig()
}

func openDB() (*sqlx.DB, error) {
	db, err := repository.NewPostgresDB(repository.Config{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   viper.GetString("db.dbname"),
		SSLMode:  viper.GetString("db.sslmode"),
	})
	if err != nil {
		return nil, err
	}
	logrus.Info("База данных подключена")
	return db, nil
}

// buildService wires the collaborators named in the config. On success the
// returned cleanup closes the optional Redis and Kafka clients.
func buildService(db *sqlx.DB) (*service.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	loc, err := time.LoadLocation(viper.GetString("app.timezone"))
	if err != nil {
		return nil, nil, err
	}

	deps := service.Deps{
		Gateway: provider.NewMercadoPagoClient(provider.Config{
			BaseURL:     viper.GetString("provider.base_url"),
			AccessToken: os.Getenv("MP_ACCESS_TOKEN"),
			Timeout:     viper.GetDuration("provider.timeout"),
			RetryCount:  viper.GetInt("provider.retry_count"),
		}),
		SettleDelay: viper.GetDuration("app.settle_delay"),
		Location:    loc,
	}

	if addr := viper.GetString("redis.addr"); addr != "" {
		client, err := cache.NewRedisClient(addr, viper.GetString("redis.password"), viper.GetInt("redis.db"))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })
		deps.Inflight = cache.NewRedisInflight(client, deps.SettleDelay+time.Minute)
		logrus.Infof("Redis подключен: %s", addr)
	}

	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(brokers, viper.GetString("kafka.topic"))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { publisher.Close() })
		deps.Publisher = publisher
		logrus.Infof("Kafka подключена: %v", brokers)
	}

	mail := utils.MailConfig{
		From:             viper.GetString("mail.from"),
		FromName:         viper.GetString("mail.from_name"),
		To:               viper.GetStringSlice("mail.to"),
		MailjetAPIKey:    os.Getenv("MAILJET_API_KEY"),
		MailjetSecretKey: os.Getenv("MAILJET_SECRET_KEY"),
		SMTPHost:         viper.GetString("mail.smtp_host"),
		SMTPPort:         viper.GetInt("mail.smtp_port"),
		SMTPUser:         viper.GetString("mail.smtp_user"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
	}
	if mail.Enabled() {
		deps.Alerter = utils.NewOperatorMailer(mail)
	}

	return service.NewService(repository.NewRepository(db), deps), cleanup, nil
}
