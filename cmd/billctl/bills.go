package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"milkbill/internal/billing"
	"milkbill/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every bill",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd, func(b *billing.Board) bool {
			return b.Load(cmd.Context())
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search bills by customer name or mobile number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd, func(b *billing.Board) bool {
			return b.Search(cmd.Context(), args[0])
		})
	},
}

var addInput core.BillInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Calculate and save a bill",
	Long: `Validates the bill the same way the web form does, stores it and
prints the refreshed history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := addInput
		if in.Date == "" {
			in.Date = time.Now().Format(core.DateLayout)
		}
		return withBoard(cmd, func(b *billing.Board) bool {
			return b.Submit(cmd.Context(), in)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a bill by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd, func(b *billing.Board) bool {
			return b.Delete(cmd.Context(), args[0])
		})
	},
}

func init() {
	addCmd.Flags().StringVar(&addInput.Name, "name", "", "customer name")
	addCmd.Flags().StringVar(&addInput.Mobile, "mobile", "", "10 digit mobile number")
	addCmd.Flags().StringVar(&addInput.Date, "date", "", "bill date as YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&addInput.Rate, "rate", "", "rate per liter")
	addCmd.Flags().StringVar(&addInput.Morning, "morning", "", "morning milk in liters")
	addCmd.Flags().StringVar(&addInput.Evening, "evening", "", "evening milk in liters")

	rootCmd.AddCommand(listCmd, searchCmd, addCmd, deleteCmd)
}

var errActionFailed = errors.New("action failed")

// withBoard runs action on a fresh board, then prints its field errors,
// notice and bill list. A failed action exits non-zero.
func withBoard(cmd *cobra.Command, action func(*billing.Board) bool) error {
	svc, closeSvc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeSvc()

	board := billing.NewBoard(svc)
	ok := action(board)
	st := board.Snapshot()

	if len(st.FormErrors) > 0 {
		printFieldErrors(cmd.ErrOrStderr(), st.FormErrors)
		return fmt.Errorf("invalid bill: %w", errActionFailed)
	}
	if !st.Notice.IsZero() {
		fmt.Fprintln(cmd.ErrOrStderr(), st.Notice.Text)
	}
	if !ok {
		return errActionFailed
	}
	printBills(cmd.OutOrStdout(), st.Bills)
	return nil
}
