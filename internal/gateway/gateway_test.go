package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/pkg/api"
)

type fakeReader struct {
	summaries []api.ReceiptSummary
	views     map[string]*api.ReceiptView
	updates   []*api.WatchReceiptResponse
	err       error
}

func (f *fakeReader) Summaries(ctx context.Context) ([]api.ReceiptSummary, error) {
	return f.summaries, f.err
}

func (f *fakeReader) View(ctx context.Context, id string) (*api.ReceiptView, error) {
	if f.err != nil {
		return nil, f.err
	}
	view, ok := f.views[id]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", id, docstore.ErrNotFound)
	}
	return view, nil
}

func (f *fakeReader) Watch(ctx context.Context, id string, send func(*api.WatchReceiptResponse) error) error {
	if _, err := f.View(ctx, id); err != nil {
		return err
	}
	for _, u := range f.updates {
		if err := send(u); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T, reader Reader, opts Options) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(New(reader, opts))
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &fakeReader{}, Options{})

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListAndGet(t *testing.T) {
	reader := &fakeReader{
		summaries: []api.ReceiptSummary{{ID: "r1", Title: "Dinner", Total: "9.90"}},
		views:     map[string]*api.ReceiptView{"r1": {ID: "r1", Title: "Dinner", Total: "9.90"}},
	}
	server := newTestServer(t, reader, Options{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		validate   func(t *testing.T, body []byte)
	}{
		{
			name:       "list",
			path:       "/api/v1/receipts",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body []byte) {
				var got api.ListReceiptsResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, reader.summaries, got.Receipts)
			},
		},
		{
			name:       "get",
			path:       "/api/v1/receipts/r1",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body []byte) {
				var got api.GetReceiptResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, "Dinner", got.Receipt.Title)
			},
		},
		{
			name:       "missing receipt",
			path:       "/api/v1/receipts/nope",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "events for missing receipt",
			path:       "/api/v1/receipts/nope/events",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.validate != nil {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.validate(t, body)
			}
		})
	}
}

func TestListFailure(t *testing.T) {
	server := newTestServer(t, &fakeReader{err: errors.New("disk on fire")}, Options{})

	resp, err := http.Get(server.URL + "/api/v1/receipts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestEvents(t *testing.T) {
	reader := &fakeReader{
		views: map[string]*api.ReceiptView{"r1": {ID: "r1"}},
		updates: []*api.WatchReceiptResponse{
			{Receipt: &api.ReceiptView{ID: "r1", Total: "1.00"}},
			{Receipt: &api.ReceiptView{ID: "r1", Total: "2.00"}},
			{Deleted: true},
		},
	}
	server := newTestServer(t, reader, Options{})

	resp, err := http.Get(server.URL + "/api/v1/receipts/r1/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events, data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			events = append(events, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, []string{"receipt", "receipt", "deleted"}, events)
	require.Len(t, data, 3)
	var view api.ReceiptView
	require.NoError(t, json.Unmarshal([]byte(data[1]), &view))
	assert.Equal(t, "2.00", view.Total)
	assert.Equal(t, "{}", data[2])
}

func TestMounts(t *testing.T) {
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Path", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "rece_up 1")
	})
	server := newTestServer(t, &fakeReader{}, Options{
		RPCPath:    "/rece.v1.ReceiptService/",
		RPCHandler: rpc,
		Metrics:    metrics,
	})

	resp, err := http.Post(server.URL+"/rece.v1.ReceiptService/GetReceipt", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "/rece.v1.ReceiptService/GetReceipt", resp.Header.Get("X-Path"))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, &fakeReader{}, Options{CORSOrigins: []string{"https://app.example"}})

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/receipts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
