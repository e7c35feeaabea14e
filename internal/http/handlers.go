package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"milkbill/internal/billing"
	"milkbill/internal/core"
	"milkbill/internal/log"
)

// readyTimeout bounds the store probe behind /readyz.
const readyTimeout = 5 * time.Second

// handleIndex renders the whole page with the full listing. A store
// failure still renders the page, with an empty list and a notice.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	board := billing.NewBoard(s.service)
	board.Load(r.Context())
	s.writePage(w, r, http.StatusOK, board.Snapshot())
}

// handleSearch replaces the history table with the store's matches.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	board := billing.NewBoard(s.service)
	ok := board.Search(r.Context(), ParseSearchQuery(r.URL.Query()))
	st := board.Snapshot()

	if !isHTMX(r) {
		s.writePage(w, r, http.StatusOK, st)
		return
	}
	if !ok {
		ActionFailed(http.StatusBadGateway, st.Notice.Text).Write(w)
		return
	}

	body, err := s.render("bill-list", newListView(st.Bills, false))
	if err != nil {
		s.renderError(w, r, "bill-list", err)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

// handleCreateBill validates and stores a submission.
//
// htmx responses:
//   - field errors: 422 with the form re-rendered next to its messages
//   - invalid numbers or a store failure: a toast, nothing swapped
//   - success: a fresh form, the refreshed table out of band and a toast
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	in, err := ParseBillInput(r)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).WarnContext(r.Context(),
			"Parse bill form error",
			log.FieldOperation, log.OpParse,
			log.FieldError, err)
		ActionFailed(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	board := billing.NewBoard(s.service)
	saved := board.Submit(r.Context(), in)
	st := board.Snapshot()

	if !isHTMX(r) {
		status := http.StatusOK
		switch {
		case len(st.FormErrors) > 0:
			status = http.StatusUnprocessableEntity
		case !saved:
			status = failedSubmitStatus(st.Notice)
		}
		if !saved {
			s.fillBills(r.Context(), board)
		}
		s.writePage(w, r, status, board.Snapshot())
		return
	}

	now := s.now()
	switch {
	case len(st.FormErrors) > 0:
		body, err := s.render("bill-form", newFormView(st.Form, st.FormErrors, now))
		if err != nil {
			s.renderError(w, r, "bill-form", err)
			return
		}
		NewHTMXResponse().Status(http.StatusUnprocessableEntity).BodyHTML(string(body)).Write(w)

	case !saved:
		ActionFailed(failedSubmitStatus(st.Notice), st.Notice.Text).Write(w)

	default:
		body, err := s.render("bill-form", newFormView(core.BillInput{}, nil, now))
		if err != nil {
			s.renderError(w, r, "bill-form", err)
			return
		}
		// A failed refresh leaves the table on the page as it was.
		if st.Notice.Severity == billing.SeveritySuccess {
			list, err := s.render("bill-list", newListView(st.Bills, true))
			if err != nil {
				s.renderError(w, r, "bill-list", err)
				return
			}
			body = append(body, list...)
		}
		NewHTMXResponse().
			TriggerFormReset().
			TriggerNotice(st.Notice).
			BodyHTML(string(body)).
			Write(w)
	}
}

// handleDeleteBill removes a bill: DELETE /bills/{id} from htmx, or
// POST /bills/{id}/delete from a plain form.
func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	method := http.MethodDelete
	if strings.HasSuffix(r.URL.Path, "/delete") {
		method = http.MethodPost
	}
	if resp := RequireMethod(r, method); resp != nil {
		resp.Write(w)
		return
	}

	board := billing.NewBoard(s.service)
	deleted := board.Delete(r.Context(), r.PathValue("id"))
	st := board.Snapshot()

	if !isHTMX(r) {
		status := http.StatusOK
		if !deleted {
			status = http.StatusBadGateway
			s.fillBills(r.Context(), board)
		}
		s.writePage(w, r, status, board.Snapshot())
		return
	}

	if !deleted {
		ActionFailed(http.StatusBadGateway, st.Notice.Text).Write(w)
		return
	}
	if st.Notice.Severity != billing.SeveritySuccess {
		// Deleted, but the refresh failed.
		NewHTMXResponse().NoSwap().TriggerNotice(st.Notice).Write(w)
		return
	}

	body, err := s.render("bill-list", newListView(st.Bills, false))
	if err != nil {
		s.renderError(w, r, "bill-list", err)
		return
	}
	NewHTMXResponse().TriggerNotice(st.Notice).BodyHTML(string(body)).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the page can be served: templates parsed
// and the store answering a listing in time.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.service.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limit_clients"] = s.rateLimiter.ActiveClients()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// writePage renders the full page for plain browser requests.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, st billing.State) {
	body, err := s.render("index.html", newPageData(st, s.now()))
	if err != nil {
		s.renderError(w, r, "index.html", err)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}

// fillBills loads the listing behind a failed action without touching the
// action's notice. A second failure just leaves the table empty.
func (s *Server) fillBills(ctx context.Context, board *billing.Board) {
	bills, err := s.service.List(ctx)
	if err != nil {
		return
	}
	board.SetBills(bills)
}

func failedSubmitStatus(n billing.Notice) int {
	if n.Text == billing.NoticeInvalidNumbers {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
