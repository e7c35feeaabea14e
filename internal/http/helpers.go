package http

import (
	"net/http"
	"strings"
	"time"

	"milkbill/internal/billing"
	"milkbill/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request came from htmx rather than a plain
// form post or page load.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// billRow is a bill formatted for the history table.
type billRow struct {
	ID          string
	Date        string
	Name        string
	Mobile      string
	Morning     string
	Evening     string
	TotalLiters string
	Rate        string
	TotalAmount string
}

func newBillRow(b core.Bill) billRow {
	return billRow{
		ID:          b.ID,
		Date:        core.DisplayDate(b.Date),
		Name:        b.Name,
		Mobile:      b.Mobile,
		Morning:     core.Fixed2(b.Morning),
		Evening:     core.Fixed2(b.Evening),
		TotalLiters: core.Fixed2(b.TotalLiters),
		Rate:        core.Fixed2(b.Rate),
		TotalAmount: core.Fixed2(b.TotalAmount),
	}
}

// listView feeds the "bill-list" template.
type listView struct {
	Bills []billRow
	// OOB marks the list for an out-of-band swap next to another partial.
	OOB bool
}

func newListView(bills []core.Bill, oob bool) listView {
	rows := make([]billRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, newBillRow(b))
	}
	return listView{Bills: rows, OOB: oob}
}

// formView feeds the "bill-form" template.
type formView struct {
	Values      core.BillInput
	Errors      core.FieldErrors
	BlockedKeys string
}

func newFormView(in core.BillInput, errs core.FieldErrors, now time.Time) formView {
	if in.Date == "" {
		in.Date = now.Format(core.DateLayout)
	}
	return formView{
		Values:      in,
		Errors:      errs,
		BlockedKeys: strings.Join(core.BlockedNumericKeys, ""),
	}
}

// pageData feeds the full "index.html" page.
type pageData struct {
	Query  string
	Form   formView
	List   listView
	Notice billing.Notice
}

func newPageData(st billing.State, now time.Time) pageData {
	return pageData{
		Query:  st.Query,
		Form:   newFormView(st.Form, st.FormErrors, now),
		List:   newListView(st.Bills, false),
		Notice: st.Notice,
	}
}
