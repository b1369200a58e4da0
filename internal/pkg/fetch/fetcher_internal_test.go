package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDownloadBoundedByTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	client := New("", zap.NewNop())
	client.downloadTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := client.Download(context.Background(), server.URL)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second, "a stalled host must not block the download")
}

func TestDownloadTimeoutDefaultApplied(t *testing.T) {
	t.Parallel()

	client := New("", zap.NewNop())
	require.Equal(t, defaultDownloadTimeout, client.downloadTimeout)
}
