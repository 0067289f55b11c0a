package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIPAPICo_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
		io.WriteString(w, `{"city":"Mountain View","region":"California","country_name":"United States",
			"continent_code":"NA","latitude":37.4,"longitude":-122.1,"org":"GOOGLE"}`)
	}))
	defer srv.Close()

	p := &IPAPICo{BaseURL: srv.URL, Client: srv.Client()}
	res, err := p.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, Result{
		Continent: "North America",
		Country:   "United States",
		Region:    "California",
		City:      "Mountain View",
		Latitude:  37.4,
		Longitude: -122.1,
		Provider:  "GOOGLE",
	}, res)
}

func TestIPAPICo_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error":true,"reason":"RateLimited"}`)
	}))
	defer srv.Close()

	p := &IPAPICo{BaseURL: srv.URL, Client: srv.Client()}
	_, err := p.Lookup(context.Background(), "8.8.8.8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RateLimited")
}

func TestIPAPICo_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &IPAPICo{BaseURL: srv.URL, Client: srv.Client()}
	_, err := p.Lookup(context.Background(), "8.8.8.8")
	assert.Error(t, err)
}

func TestIPAPICom_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/1.1.1.1", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("fields"), "proxy")
		io.WriteString(w, `{"status":"success","continent":"Oceania","country":"Australia",
			"regionName":"Queensland","city":"Brisbane","lat":-27.4,"lon":153.0,
			"isp":"Cloudflare","org":"APNIC","proxy":false,"hosting":true}`)
	}))
	defer srv.Close()

	p := &IPAPICom{BaseURL: srv.URL, Client: srv.Client()}
	res, err := p.Lookup(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "Australia", res.Country)
	assert.Equal(t, "Queensland", res.Region)
	assert.Equal(t, "Cloudflare", res.Provider)
	assert.True(t, res.Proxy, "hosting should count as proxy")
}

func TestIPAPICom_FailStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"fail","message":"reserved range"}`)
	}))
	defer srv.Close()

	p := &IPAPICom{BaseURL: srv.URL, Client: srv.Client()}
	_, err := p.Lookup(context.Background(), "1.1.1.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved range")
}

type stubProvider struct {
	name  string
	res   Result
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Lookup(context.Context, string) (Result, error) {
	s.calls++
	return s.res, s.err
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	second := &stubProvider{name: "second", res: Result{Country: "France"}}
	third := &stubProvider{name: "third", res: Result{Country: "Spain"}}

	c := NewChain(discardLogger(), first, second, third)
	res, err := c.Lookup(context.Background(), "8.8.4.4")
	require.NoError(t, err)
	assert.Equal(t, "France", res.Country)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_AllFail(t *testing.T) {
	last := errors.New("last failure")
	c := NewChain(discardLogger(),
		&stubProvider{name: "a", err: errors.New("first failure")},
		&stubProvider{name: "b", err: last},
	)
	_, err := c.Lookup(context.Background(), "8.8.4.4")
	assert.ErrorIs(t, err, last)
}

func TestChain_SkipsPrivateAndInvalid(t *testing.T) {
	p := &stubProvider{name: "p", res: Result{Country: "X"}}
	c := NewChain(discardLogger(), p)

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1"} {
		_, err := c.Lookup(context.Background(), ip)
		assert.ErrorIs(t, err, ErrPrivateIP, ip)
	}
	_, err := c.Lookup(context.Background(), "not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidIP)
	assert.Equal(t, 0, p.calls)
}

func TestChain_SkipsUnloadedReader(t *testing.T) {
	r, _ := Open("")
	c := NewChain(discardLogger(), nil, r)
	assert.Empty(t, c.providers)

	_, err := c.Lookup(context.Background(), "8.8.8.8")
	assert.Error(t, err)
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	second := &stubProvider{name: "second", res: Result{Country: "late"}}
	c := NewChain(discardLogger(), &IPAPICo{BaseURL: srv.URL, Client: srv.Client()}, second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Lookup(ctx, "8.8.8.8")
	assert.Error(t, err)
	assert.Equal(t, 0, second.calls)
}
