package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/luxejewel-storefront/internal/checkout"
	"github.com/example/luxejewel-storefront/internal/infrastructure/kafka"
	"github.com/urfave/cli/v2"
)

func (sf *storefront) journalCommand() *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "checkout transition journal",
		Subcommands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "print checkout transitions as they are published",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "from-beginning", Usage: "replay the whole topic first"},
				},
				Action: sf.tailJournal,
			},
		},
	}
}

func (sf *storefront) tailJournal(c *cli.Context) error {
	if len(sf.cfg.KafkaBrokers) == 0 {
		return errors.New("no journal configured: set STOREFRONT_KAFKA_BROKERS")
	}
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       sf.cfg.KafkaBrokers,
		Topic:         sf.cfg.KafkaTopic,
		FromBeginning: c.Bool("from-beginning"),
	}, sf.log)
	defer consumer.Close()

	err := consumer.Consume(c.Context, func(ctx context.Context, key, value []byte) error {
		var e checkout.JournalEntry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("failed to decode journal entry: %w", err)
		}
		line := fmt.Sprintf("%s  %s  %s -> %s", e.At.Local().Format("15:04:05.000"), e.AttemptID, e.From, e.To)
		if e.OrderID != "" {
			line += "  order=" + e.OrderID
		}
		if e.Error != "" {
			line += "  error=" + e.Error
		}
		_, err := fmt.Fprintln(sf.out, line)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
