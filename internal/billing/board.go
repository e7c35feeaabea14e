package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"milkbill/internal/core"
	"milkbill/internal/store"
)

// Notice texts shown to the user.
const (
	NoticeFetchFailed    = "Failed to fetch bills. Check backend connection."
	NoticeSearchFailed   = "Failed to search bills"
	NoticeInvalidNumbers = "Please enter valid numbers"
	NoticeSaved          = "Bill saved successfully!"
	NoticeSaveFailed     = "Failed to save bill"
	NoticeDeleted        = "Bill deleted successfully!"
	NoticeDeleteFailed   = "Failed to delete bill"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notice is a transient message about the last action.
type Notice struct {
	Severity Severity
	Text     string
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool { return n.Text == "" }

// State is a copy of the board taken for rendering.
type State struct {
	Bills      []core.Bill
	Query      string
	Notice     Notice
	Form       core.BillInput
	FormErrors core.FieldErrors
}

// Board keeps the bill list as last fetched from the store together with
// the form and notice state. The list is always replaced, never merged,
// and is left untouched when an action fails.
type Board struct {
	svc *Service

	mu         sync.Mutex
	bills      []core.Bill
	query      string
	notice     Notice
	form       core.BillInput
	formErrors core.FieldErrors
}

func NewBoard(svc *Service) *Board {
	return &Board{svc: svc}
}

// Load replaces the list with the full listing.
func (b *Board) Load(ctx context.Context) bool {
	bills, err := b.svc.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch bills", "error", err)
		b.setNotice(SeverityError, NoticeFetchFailed)
		return false
	}
	b.mu.Lock()
	b.bills = bills
	b.query = ""
	b.mu.Unlock()
	return true
}

// Search replaces the list with the store's matches for query. A blank
// query is a full listing.
func (b *Board) Search(ctx context.Context, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return b.Load(ctx)
	}
	bills, err := b.svc.Search(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to search bills", "query", query, "error", err)
		b.setNotice(SeverityError, NoticeSearchFailed)
		return false
	}
	b.mu.Lock()
	b.bills = bills
	b.query = query
	b.mu.Unlock()
	return true
}

// Submit validates and stores a bill, then refreshes the list. It reports
// whether the bill was stored.
func (b *Board) Submit(ctx context.Context, in core.BillInput) bool {
	b.mu.Lock()
	b.form = in
	b.formErrors = nil
	b.mu.Unlock()

	_, err := b.svc.Create(ctx, in)
	if err != nil {
		var fieldErrs core.FieldErrors
		var storeErr *store.StoreError
		switch {
		case errors.As(err, &fieldErrs):
			b.mu.Lock()
			b.formErrors = fieldErrs
			b.mu.Unlock()
		case errors.Is(err, core.ErrInvalidNumbers):
			b.setNotice(SeverityError, NoticeInvalidNumbers)
		case errors.As(err, &storeErr) && storeErr.Message != "":
			slog.ErrorContext(ctx, "Store rejected bill", "status", storeErr.Status, "error", err)
			b.setNotice(SeverityError, storeErr.Message)
		default:
			slog.ErrorContext(ctx, "Failed to save bill", "error", err)
			b.setNotice(SeverityError, NoticeSaveFailed)
		}
		return false
	}

	b.mu.Lock()
	b.form = core.BillInput{}
	b.mu.Unlock()

	b.setNotice(SeveritySuccess, NoticeSaved)
	b.Load(ctx)
	return true
}

// Delete removes a bill and refreshes the list. Unknown ids are the
// store's business.
func (b *Board) Delete(ctx context.Context, id string) bool {
	if err := b.svc.Delete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to delete bill", "bill_id", id, "error", err)
		b.setNotice(SeverityError, NoticeDeleteFailed)
		return false
	}
	b.setNotice(SeveritySuccess, NoticeDeleted)
	b.Load(ctx)
	return true
}

// SetBills replaces the list without a store round trip.
func (b *Board) SetBills(bills []core.Bill) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bills = bills
}

// ClearNotice drops the current notice once it has been shown.
func (b *Board) ClearNotice() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = Notice{}
}

func (b *Board) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := State{
		Bills:  make([]core.Bill, len(b.bills)),
		Query:  b.query,
		Notice: b.notice,
		Form:   b.form,
	}
	copy(st.Bills, b.bills)
	if len(b.formErrors) > 0 {
		st.FormErrors = make(core.FieldErrors, len(b.formErrors))
		for k, v := range b.formErrors {
			st.FormErrors[k] = v
		}
	}
	return st
}

func (b *Board) setNotice(sev Severity, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = Notice{Severity: sev, Text: text}
}
