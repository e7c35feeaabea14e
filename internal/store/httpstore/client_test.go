package httpstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"milkbill/internal/core"
	"milkbill/internal/store"
	"milkbill/internal/store/memory"
	"milkbill/internal/storeapi"
)

func newStoreServer(t *testing.T) (*Client, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := memory.New(nil)
	srv := httptest.NewServer(storeapi.NewRouter(mem))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+storeapi.BasePath, 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, mem
}

func asha() core.Bill {
	return core.NewBill(core.BillValues{
		Name: "Asha", Mobile: "9876543210", Date: core.NewDate(2024, 1, 15),
		Morning: 5, Evening: 3.5, Rate: 40,
	})
}

func TestClientRoundTrip(t *testing.T) {
	c, mem := newStoreServer(t)
	ctx := context.Background()

	bills, err := c.List(ctx)
	if err != nil || bills == nil || len(bills) != 0 {
		t.Fatalf("empty list: bills=%v err=%v", bills, err)
	}

	created, err := c.Create(ctx, asha())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.TotalLiters != 8.5 || created.TotalAmount != 340 {
		t.Fatalf("unexpected created bill: %+v", created)
	}

	bills, _ = c.List(ctx)
	if len(bills) != 1 || bills[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", bills)
	}

	found, err := c.Search(ctx, "98765")
	if err != nil || len(found) != 1 {
		t.Fatalf("search: found=%v err=%v", found, err)
	}
	found, _ = c.Search(ctx, "a b&c")
	if len(found) != 0 {
		t.Fatalf("query must be escaped, got %v", found)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx, "does-not-exist"); err != nil {
		t.Fatalf("delete of unknown id: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("store should be empty")
	}
}

func TestClientCreateSurfacesStoreMessage(t *testing.T) {
	c, _ := newStoreServer(t)
	b := asha()
	b.Mobile = "123"

	_, err := c.Create(context.Background(), b)
	var serr *store.StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if serr.Status != http.StatusBadRequest || !strings.Contains(serr.Message, "Mobile") {
		t.Fatalf("unexpected store error: %+v", serr)
	}
}

func TestClientErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.URL+"/", srv.Client())
	_, err := c.List(context.Background())
	var serr *store.StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if serr.Message != "" || serr.Op != "list" || serr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected store error: %+v", serr)
	}
}

func TestClientCreateEmptyBody(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewWithHTTPClient(srv.URL, srv.Client())
		created, err := c.Create(context.Background(), asha())
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: create failed: %v", status, err)
		}
		if created.ID != "" || created.Name != "" {
			t.Fatalf("status %d: expected zero bill, got %+v", status, created)
		}
	}
}

func TestClientCreateMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.URL, srv.Client())
	if _, err := c.Create(context.Background(), asha()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClientRequestShape(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotQuery = r.Method, r.URL.EscapedPath(), r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()
	c := NewWithHTTPClient(srv.URL+"/api/bills", srv.Client())
	ctx := context.Background()

	_, _ = c.Search(ctx, "asha devi")
	if gotMethod != http.MethodGet || gotPath != "/api/bills/search" || gotQuery != "query=asha+devi" {
		t.Fatalf("search request: %s %s?%s", gotMethod, gotPath, gotQuery)
	}

	_ = c.Delete(ctx, "a/b")
	if gotMethod != http.MethodDelete || gotPath != "/api/bills/a%2Fb" {
		t.Fatalf("delete request: %s %s", gotMethod, gotPath)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(url, time.Second)
	if _, err := c.List(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://store", "localhost:5000", "://"} {
		if _, err := New(u, time.Second); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}
