package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/nyasuto/mond/internal/domain/domaintest"
)

func chartBody(offset int64, days []time.Time, closes []string) string {
	ts := make([]string, len(days))
	for i, d := range days {
		// 09:00 exchange-local bar time
		ts[i] = fmt.Sprint(d.Unix() - offset + 9*3600)
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"X","gmtoffset":%d},"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`,
		offset, strings.Join(ts, ","), strings.Join(closes, ","))
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, MaxAttempts: 3, InitialBackoff: time.Millisecond}, zerolog.Nop())
}

func TestDailyCloses(t *testing.T) {
	d1, d2, d3 := Day(2024, 1, 4), Day(2024, 1, 5), Day(2024, 1, 8)
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		fmt.Fprint(w, chartBody(32400, []time.Time{d1, d2, d3}, []string{"141.25", "null", "144.5"}))
	}))
	defer srv.Close()

	// Execute
	closes, err := newTestClient(srv.URL).DailyCloses(context.Background(), "USDJPY=X", d1, d3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/USDJPY=X", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, fmt.Sprintf("period2=%d", d3.AddDate(0, 0, 1).Unix()))
	assert.NotEmpty(t, gotUA)

	require.Len(t, closes, 2, "null closes are skipped")
	assert.Equal(t, d1, closes[0].Date)
	assert.True(t, closes[0].Value.Equal(D("141.25")))
	assert.Equal(t, d3, closes[1].Date)
}

func TestDailyCloses_FiltersOutsideRange(t *testing.T) {
	d0, d1 := Day(2024, 1, 3), Day(2024, 1, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0, []time.Time{d0, d1}, []string{"1", "2"}))
	}))
	defer srv.Close()

	closes, err := newTestClient(srv.URL).DailyCloses(context.Background(), "VTI", d1, d1)

	require.NoError(t, err)
	require.Len(t, closes, 1)
	assert.Equal(t, d1, closes[0].Date)
}

func TestDailyCloses_RetriesRateLimit(t *testing.T) {
	day := Day(2024, 1, 4)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chartBody(0, []time.Time{day}, []string{"100"}))
	}))
	defer srv.Close()

	closes, err := newTestClient(srv.URL).DailyCloses(context.Background(), "VTI", day, day)

	require.NoError(t, err)
	assert.Len(t, closes, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDailyCloses_GivesUpAfterMaxAttempts(t *testing.T) {
	day := Day(2024, 1, 4)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).DailyCloses(context.Background(), "VTI", day, day)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDailyCloses_DoesNotRetryClientErrors(t *testing.T) {
	day := Day(2024, 1, 4)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).DailyCloses(context.Background(), "NOPE", day, day)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDailyCloses_EmptyResultIsError(t *testing.T) {
	day := Day(2024, 1, 6)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[],"indicators":{"quote":[{"close":[]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).DailyCloses(context.Background(), "VTI", day, day)

	assert.ErrorContains(t, err, "no closes for VTI")
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&statusError{Status: http.StatusTooManyRequests}))
	assert.True(t, retryable(&statusError{Status: http.StatusBadGateway}))
	assert.False(t, retryable(&statusError{Status: http.StatusBadRequest}))
	assert.True(t, retryable(context.DeadlineExceeded))
	assert.False(t, retryable(context.Canceled))
}
