package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"milkbill/internal/amqp"
	"milkbill/internal/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print bill events as they are published",
	Long:  `Consumes bill.created and bill.deleted events from the configured AMQP queue until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is not set; bill events are disabled")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connecting to AMQP: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	err = client.ConsumeBillEvents(ctx, func(ev *amqp.BillEvent) error {
		_, err := fmt.Fprintln(out, formatEvent(ev))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func formatEvent(ev *amqp.BillEvent) string {
	ts := ev.Timestamp.Format("15:04:05")
	if ev.Type == amqp.EventBillDeleted {
		return fmt.Sprintf("%s  %-12s  %s", ts, ev.Type, ev.ID)
	}
	date := "N/A"
	if d, err := core.ParseDate(ev.Date); err == nil {
		date = core.DisplayDate(d)
	}
	return fmt.Sprintf("%s  %-12s  %s  %s (%s)  %s L  ₹%s",
		ts, ev.Type, date, ev.Name, ev.Mobile,
		core.Fixed2(ev.TotalLiters), core.Fixed2(ev.TotalAmount))
}
