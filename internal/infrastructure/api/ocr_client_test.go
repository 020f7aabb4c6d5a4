package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThomasKLA10/expense-app/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanReceipt(t *testing.T) {
	t.Run("Wrapped results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(32<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "receipt.png", header.Filename)

			w.Write([]byte(`{"results":{"date":"2024-02-01","total":"42.50","currency":"GBP"}}`))
		}))
		defer server.Close()

		client := NewOCRClient(server.URL, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))

		result, err := client.ScanReceipt(context.Background(), "receipt.png", []byte("fake-image"))
		require.NoError(t, err)
		assert.Equal(t, "2024-02-01", result.Date)
		assert.Equal(t, "42.50", result.Total)
		assert.Equal(t, "GBP", result.Currency)
	})

	t.Run("Bare results object", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"date":"2024-02-01","total":99.9,"currency":"USD"}`))
		}))
		defer server.Close()

		client := NewOCRClient(server.URL, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))

		result, err := client.ScanReceipt(context.Background(), "r.jpg", []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "2024-02-01", result.Date)
		assert.Equal(t, "99.9", result.Total)
		assert.Equal(t, "USD", result.Currency)
	})

	t.Run("Missing fields stay empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":{"total":"12.00"}}`))
		}))
		defer server.Close()

		client := NewOCRClient(server.URL, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))

		result, err := client.ScanReceipt(context.Background(), "r.pdf", []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "", result.Date)
		assert.Equal(t, "12.00", result.Total)
		assert.Equal(t, "", result.Currency)
	})

	t.Run("Service error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"Invalid file type"}`))
		}))
		defer server.Close()

		client := NewOCRClient(server.URL, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))

		_, err := client.ScanReceipt(context.Background(), "r.pdf", []byte("x"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid file type")
	})

	t.Run("Error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewOCRClient(server.URL, nil, logger.NewJSONLogger(nil, logger.ErrorLevel))

		_, err := client.ScanReceipt(context.Background(), "r.pdf", []byte("x"))
		assert.Error(t, err)
	})
}
