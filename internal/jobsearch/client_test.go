package jobsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("", "key")
	assert.Error(t, err)

	_, err = NewClient("   ", "key")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[{"title":"Backend Engineer","company":"Initech","posted_at":"2026-08-01"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret-key")
	require.NoError(t, err)

	postings, err := client.Search(context.Background(), []string{"go", "postgres"}, "remote")
	require.NoError(t, err)
	require.Len(t, postings, 1)

	assert.Equal(t, "Backend Engineer", postings[0].Title)
	assert.Equal(t, "Initech", postings[0].Company)
	assert.Equal(t, "2026-08-01", postings[0].PostedAt)
	assert.Contains(t, gotQuery, "q=go+postgres")
	assert.Contains(t, gotQuery, "location=remote")
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jobs":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	postings, err := client.Search(context.Background(), []string{"go"}, "")
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Search(context.Background(), []string{"go"}, "")
	assert.Error(t, err)
}
