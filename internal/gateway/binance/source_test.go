package binance

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval(t *testing.T) {
	cases := map[string]string{"5m": "5m", "15m": "15m", "1H": "1h", "4H": "4h", "1D": "1d"}
	for in, want := range cases {
		got, ok := Interval(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "m", "xH", "0m", "5s"} {
		_, ok := Interval(bad)
		assert.False(t, ok, bad)
	}
}

func TestFetchHistory_DropsFormingBar(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[
			[1714564500000,"3500","3512","3495","3510","100",1714564799999,"0",42,"0","0","0"],
			[1714564800000,"3510","3520","3500","3515","120",1714565099999,"0",40,"0","0","0"]
		]`)
	}))
	defer srv.Close()

	src, err := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: time.Second})
	require.NoError(t, err)
	src.now = func() time.Time { return time.UnixMilli(1714564900000) }

	cs, err := src.FetchHistory(context.Background(), "ETH-USDT-SWAP", "5m", 2)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, 3510.0, cs[0].Close)
	assert.Equal(t, int64(42), cs[0].Trades)
	assert.Contains(t, gotQuery, "symbol=ETHUSDT")
	assert.Contains(t, gotQuery, "interval=5m")
}

func TestNew_Defaults(t *testing.T) {
	src, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRESTURL, src.cfg.RESTBaseURL)
	assert.Equal(t, defaultTimeout, src.cfg.HTTPTimeout)

	_, err = New(Config{RESTBaseURL: "fapi.binance.com"})
	assert.Error(t, err)
}
