package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	"finboard/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to watch notifications")
		os.Exit(1)
	}

	logger.Info("Starting finboard-watch", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	go func() {
		err := client.ConsumeNotifications(ctx, func(msg *amqp.NotificationMessage) error {
			fmt.Printf("%s [%s] %s\n", msg.Timestamp.Local().Format(time.TimeOnly), msg.Kind, msg.Message)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Notification consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
