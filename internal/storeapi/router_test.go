package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"milkbill/internal/core"
	"milkbill/internal/store/memory"
)

func performRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := memory.New(nil)
	return NewRouter(s), s
}

const ashaJSON = `{"Name":"Asha","Mobile":"9876543210","Date":"2024-01-15","Morning":5,"Evening":3.5,"Rate":40,"TotalLiters":8.5,"TotalAmount":340}`

func TestCreateListSearchDelete(t *testing.T) {
	r, s := setupRouter(t)

	resp := performRequest(r, http.MethodPost, BasePath, strings.NewReader(ashaJSON))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created core.Bill
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("unexpected created bill: %s (%v)", resp.Body.String(), err)
	}
	if created.TotalAmount != 340 || created.Date.String() != "2024-01-15" {
		t.Fatalf("unexpected stored values: %+v", created)
	}

	resp = performRequest(r, http.MethodGet, BasePath, nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"_id":"`+created.ID+`"`) {
		t.Fatalf("list status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, BasePath+"/search?query=asha", nil)
	var found []core.Bill
	_ = json.Unmarshal(resp.Body.Bytes(), &found)
	if resp.Code != http.StatusOK || len(found) != 1 {
		t.Fatalf("search status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, BasePath+"/search?query=nobody", nil)
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("empty search should be []: %s", resp.Body.String())
	}

	for i := 0; i < 2; i++ {
		resp = performRequest(r, http.MethodDelete, BasePath+"/"+created.ID, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("delete #%d status=%d", i+1, resp.Code)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestCreateRejectsBadPayload(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"short name", strings.Replace(ashaJSON, `"Asha"`, `"Al"`, 1), "Name"},
		{"short mobile", strings.Replace(ashaJSON, `"9876543210"`, `"12345"`, 1), "Mobile"},
		{"signed mobile", strings.Replace(ashaJSON, `"9876543210"`, `"+987654321"`, 1), "Mobile"},
		{"zero rate", strings.Replace(ashaJSON, `"Rate":40`, `"Rate":0`, 1), "Rate"},
		{"missing morning", strings.Replace(ashaJSON, `"Morning":5,`, ``, 1), "Morning"},
		{"negative evening", strings.Replace(ashaJSON, `"Evening":3.5`, `"Evening":-1`, 1), "Evening"},
		{"bad date", strings.Replace(ashaJSON, `"2024-01-15"`, `"someday"`, 1), "Date"},
		{"not json", `{`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(r, http.MethodPost, BasePath, bytes.NewBufferString(tt.body))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(resp.Body.Bytes(), &body)
			if !strings.Contains(body["error"], tt.want) {
				t.Fatalf("error %q should mention %q", body["error"], tt.want)
			}
		})
	}
}

type failingStore struct{ memory.Store }

func (*failingStore) List(context.Context) ([]core.Bill, error) { return nil, errors.New("disk gone") }

func TestListFailureReportsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&failingStore{})
	resp := performRequest(r, http.MethodGet, BasePath, nil)
	if resp.Code != http.StatusInternalServerError || !strings.Contains(resp.Body.String(), `"error"`) {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}
}
