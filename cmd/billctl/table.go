package main

import (
	"fmt"
	"io"
	"strings"

	"milkbill/internal/core"
)

const rowFormat = "%-10s  %-20s  %-10s  %9s  %9s  %9s  %8s  %10s  %s\n"

// printBills writes the history as a fixed-width table.
func printBills(w io.Writer, bills []core.Bill) {
	if len(bills) == 0 {
		fmt.Fprintln(w, "No bills found")
		return
	}

	fmt.Fprintf(w, rowFormat, "Date", "Name", "Mobile", "Morning", "Evening", "Total", "Rate", "Amount", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	var liters, amount float64
	for _, b := range bills {
		fmt.Fprintf(w, rowFormat,
			core.DisplayDate(b.Date),
			truncate(b.Name, 20),
			b.Mobile,
			core.Fixed2(b.Morning),
			core.Fixed2(b.Evening),
			core.Fixed2(b.TotalLiters),
			core.Fixed2(b.Rate),
			core.Fixed2(b.TotalAmount),
			b.ID)
		liters += b.TotalLiters
		amount += b.TotalAmount
	}

	fmt.Fprintln(w, strings.Repeat("-", 110))
	fmt.Fprintf(w, "Total: %s L, ₹%s (%d bills)\n", core.Fixed2(liters), core.Fixed2(amount), len(bills))
}

// printFieldErrors lists validation messages in form order.
func printFieldErrors(w io.Writer, errs core.FieldErrors) {
	for _, f := range core.BillFields {
		if msg, ok := errs[f]; ok {
			fmt.Fprintf(w, "%s: %s\n", f, msg)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
