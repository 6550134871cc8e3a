package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/scrape/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile(base string) types.Profile {
	p := Indeed()
	p.SearchURL = base + "/jobs"
	return p
}

func TestFetcher_Fetch(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indeedPage))
	}))
	defer srv.Close()

	f := New(Config{Profile: testProfile(srv.URL)}, util.NewHostLimiter(100, 10))
	doc, err := f.Fetch(context.Background(), "data scientist", "New York", 2)
	require.NoError(t, err)

	assert.Equal(t, "q=data+scientist&l=New+York&start=20", gotQuery)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Len(t, Parse(doc, f.Profile()), 2)
	assert.Equal(t, "Indeed", f.Name())
}

func TestFetcher_ProfileUserAgentWins(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	p := testProfile(srv.URL)
	p.UserAgent = "Custom/2.0"
	_, err := New(Config{Profile: p, UserAgent: "App/1.0"}, nil).Fetch(context.Background(), "a", "b", 0)
	require.NoError(t, err)
	assert.Equal(t, "Custom/2.0", gotUA)
}

func TestFetcher_TransientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "blocked", http.StatusForbidden)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "not html",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"jobs":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			doc, err := New(Config{Profile: testProfile(srv.URL)}, nil).Fetch(context.Background(), "q", "l", 0)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, ErrTransient), "got %v", err)
		})
	}
}

func TestFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := New(Config{Profile: testProfile(base)}, nil).Fetch(context.Background(), "q", "l", 0)
	assert.ErrorIs(t, err, ErrTransient)
}

func TestFetcher_BadSearchURL(t *testing.T) {
	p := Indeed()
	p.SearchURL = "not a url"
	_, err := New(Config{Profile: p}, nil).Fetch(context.Background(), "q", "l", 0)
	assert.ErrorIs(t, err, ErrTransient)
}

func TestBuiltin(t *testing.T) {
	p, ok := Builtin(" linkedin ")
	require.True(t, ok)
	assert.Equal(t, 25, p.Stride)
	assert.Equal(t, types.SpacePercent, p.Spaces)

	_, ok = Builtin("monster")
	assert.False(t, ok)
}
