package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPost_OK(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/post-dpr", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Result{EntryCounts: []int{3, 1}, Warnings: []string{"M2 has no BOM"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, time.Millisecond, quietLogger())
	res, err := c.Post(context.Background(), 42, "store.keeper")
	require.NoError(t, err)

	assert.Equal(t, Request{ReportID: 42, PostedBy: "store.keeper"}, got)
	assert.Equal(t, []int{3, 1}, res.EntryCounts)
	assert.Equal(t, []string{"M2 has no BOM"}, res.Warnings)
}

func TestPost_RetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Result{EntryCounts: []int{2}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, time.Millisecond, quietLogger())
	res, err := c.Post(context.Background(), 1, "qa")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.EntryCounts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPost_GivesUpAfterSecondFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "report not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, time.Millisecond, quietLogger())
	_, err := c.Post(context.Background(), 9, "qa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report not found")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPost_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 20*time.Millisecond, time.Millisecond, quietLogger())
	start := time.Now()
	_, err := c.Post(context.Background(), 5, "qa")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
