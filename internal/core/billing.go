// Package core holds the bill record, its validation rules and the
// billing arithmetic. Nothing here performs I/O.
package core

// ComputeBill derives the totals of a delivery day. No rounding is applied;
// callers round for display only.
func ComputeBill(morning, evening, rate float64) (totalLiters, totalAmount float64) {
	totalLiters = morning + evening
	totalAmount = totalLiters * rate
	return totalLiters, totalAmount
}
