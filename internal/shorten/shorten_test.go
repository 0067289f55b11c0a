package shorten

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

func TestTextAPI_TinyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com/a?b=c", r.URL.Query().Get("url"))
		io.WriteString(w, "https://tinyurl.com/abc123\n")
	}))
	defer srv.Close()

	s := NewTinyURL(time.Second)
	s.Endpoint = srv.URL
	got, err := s.Shorten(context.Background(), "https://example.com/a?b=c")
	require.NoError(t, err)
	assert.Equal(t, "https://tinyurl.com/abc123", got)
}

func TestTextAPI_IsGdSendsFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "simple", r.URL.Query().Get("format"))
		io.WriteString(w, "https://is.gd/xyz")
	}))
	defer srv.Close()

	s := NewIsGd(time.Second)
	s.Endpoint = srv.URL
	got, err := s.Shorten(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://is.gd/xyz", got)
}

func TestTextAPI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "oops"},
		{"error text", http.StatusOK, "Error: Please enter a valid URL to shorten"},
		{"empty", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			s := NewTinyURL(time.Second)
			s.Endpoint = srv.URL
			_, err := s.Shorten(context.Background(), "https://example.com")
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(time.Second)
	require.Contains(t, r, "tinyurl")
	require.Contains(t, r, "isgd")
	assert.Equal(t, "isgd", r["isgd"].Name())
}
