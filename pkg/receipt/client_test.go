package receipt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Cooki-Backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReceipt(t *testing.T, name string) LocalFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake receipt bytes"), 0o600))
	return LocalFile{Path: path}
}

func TestProcessReceiptSendsMultipartFile(t *testing.T) {
	var gotType, gotName string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"store_name": "FreshMart",
			"date": "2024-05-01",
			"total_amount": 12.5,
			"items": [
				{"name": "Milk", "qty": 2, "weight": {"value": 1, "unit": "l"}, "price": 2.5},
				{"name": "Apples", "qty": 1}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	data, err := client.ProcessReceipt(context.Background(), writeReceipt(t, "shop.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "shop.jpg", gotName)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "fake receipt bytes", string(gotBody))

	assert.Equal(t, "FreshMart", data.StoreName)
	require.NotNil(t, data.Date)
	assert.Equal(t, "2024-05-01", *data.Date)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "Milk", data.Items[0].Name)
	require.NotNil(t, data.Items[0].Weight)
	assert.Equal(t, "l", data.Items[0].Weight.Unit)
	assert.Nil(t, data.Items[1].Weight)
}

func TestProcessReceiptServerErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	_, err := client.ProcessReceipt(context.Background(), writeReceipt(t, "shop.png"))
	require.Error(t, err)

	var httpErr *domain.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrDecode)
}

func TestProcessReceiptDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "missing store name", body: `{"items": []}`},
		{name: "item without qty", body: `{"store_name": "X", "items": [{"name": "Milk"}]}`},
		{name: "negative qty", body: `{"store_name": "X", "items": [{"name": "Milk", "qty": -2}]}`},
		{name: "negative weight", body: `{"store_name": "X", "items": [{"name": "Rice", "qty": 1, "weight": {"value": -500, "unit": "g"}}]}`},
		{name: "unknown weight unit", body: `{"store_name": "X", "items": [{"name": "Milk", "qty": 1, "weight": {"value": 1, "unit": "gallon"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second, 0)
			_, err := client.ProcessReceipt(context.Background(), writeReceipt(t, "r.pdf"))
			assert.ErrorIs(t, err, domain.ErrDecode)
		})
	}
}

func TestProcessReceiptTolerantFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"store_name": "Corner",
			"date": 20240501,
			"total_amount": "a lot",
			"items": [{"name": "Bread", "qty": 1, "price": "cheap", "weight": {"value": "heavy", "unit": "g"}}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	data, err := client.ProcessReceipt(context.Background(), writeReceipt(t, "r.jpeg"))
	require.NoError(t, err)

	assert.Nil(t, data.Date)
	assert.Nil(t, data.TotalAmount)
	require.Len(t, data.Items, 1)
	assert.Nil(t, data.Items[0].Price)
	assert.Nil(t, data.Items[0].Weight)
}

func TestProcessReceiptMissingFile(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0)
	_, err := client.ProcessReceipt(context.Background(), LocalFile{Path: filepath.Join(t.TempDir(), "nope.jpg")})

	var accessErr *domain.FileAccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, "nope.jpg", accessErr.Name)
	assert.ErrorIs(t, err, domain.ErrFileAccess)
	assert.False(t, called)
}

func TestProcessReceiptUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, 0)
	_, err := client.ProcessReceipt(context.Background(), writeReceipt(t, "r.jpg"))
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeType("a.JPG"))
	assert.Equal(t, "image/jpeg", MimeType("a.jpeg"))
	assert.Equal(t, "image/png", MimeType("a.png"))
	assert.Equal(t, "application/pdf", MimeType("a.pdf"))
	assert.Equal(t, "application/octet-stream", MimeType("a.txt"))
}
