package social_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-hub/domain/repository"
	"social-hub/infrastructure/clients/social"
)

func newFacebook(baseURL string) *social.FacebookPublisher {
	p := social.NewFacebookPublisher(time.Second)
	p.BaseURL = baseURL
	return p
}

func TestFacebookPublish_UsesFirstPageToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"data":[{"id":"p1","name":"First Page","access_token":"page-token-1"},{"id":"p2","name":"Second Page","access_token":"page-token-2"}]}`))
	})
	mux.HandleFunc("/p1/feed", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "page-token-1", r.Form.Get("access_token"), "page posts use the page-scoped token")
		assert.Equal(t, "hello page", r.Form.Get("message"))
		w.Write([]byte(`{"id":"p1_555"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newFacebook(srv.URL).Publish(context.Background(), repository.PublishInput{Content: "hello page", AccessToken: "user-token"})
	require.True(t, out.Success)
	assert.Equal(t, "p1_555", out.PostID)
	assert.Equal(t, "https://www.facebook.com/p1_555", out.URL)
	assert.Contains(t, out.Message, "First Page")
}

func TestFacebookPublish_NoPagesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	out := newFacebook(srv.URL).Publish(context.Background(), repository.PublishInput{Content: "hi", AccessToken: "tok"})
	require.False(t, out.Success)
	assert.False(t, out.NeedsReconnection)
	assert.Contains(t, out.Error, "no Facebook pages found")
}

func TestFacebookPublish_OAuthErrorCode190NeedsReconnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	out := newFacebook(srv.URL).Publish(context.Background(), repository.PublishInput{Content: "hi", AccessToken: "stale"})
	require.False(t, out.Success)
	assert.True(t, out.NeedsReconnection)
}

func TestFacebookPublish_ImageUploadFailureFallsBackToText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"p1","name":"Page","access_token":"pt"}]}`))
	})
	mux.HandleFunc("/p1/photos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad image"}}`))
	})
	mux.HandleFunc("/p1/feed", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Empty(t, r.Form.Get("attached_media[0]"), "failed upload must not attach media")
		w.Write([]byte(`{"id":"p1_9"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newFacebook(srv.URL).Publish(context.Background(), repository.PublishInput{
		Content:     "hi",
		AccessToken: "tok",
		ImageURL:    "https://example.com/broken.png",
	})
	require.True(t, out.Success)
	assert.Equal(t, "p1_9", out.PostID)
}

func TestFacebookPublish_ImageAttachedWhenUploadSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"p1","name":"Page","access_token":"pt"}]}`))
	})
	mux.HandleFunc("/p1/photos", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "false", r.Form.Get("published"))
		assert.Equal(t, "https://example.com/ok.png", r.Form.Get("url"))
		w.Write([]byte(`{"id":"media77"}`))
	})
	mux.HandleFunc("/p1/feed", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, `{"media_fbid":"media77"}`, r.Form.Get("attached_media[0]"))
		w.Write([]byte(`{"id":"p1_10"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newFacebook(srv.URL).Publish(context.Background(), repository.PublishInput{
		Content:     "hi",
		AccessToken: "tok",
		ImageURL:    "https://example.com/ok.png",
	})
	require.True(t, out.Success)
}

func TestFacebookGetEngagement_SummariesAndInsights(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p1_5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"likes":{"summary":{"total_count":21}},"comments":{"summary":{"total_count":6}},"shares":{"count":4}}`))
	})
	mux.HandleFunc("/p1_5/insights", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("metric"), "post_impressions")
		w.Write([]byte(`{"data":[
			{"name":"post_impressions","values":[{"value":1500}]},
			{"name":"post_impressions_unique","values":[{"value":1200}]},
			{"name":"post_clicks","values":[{"value":33}]}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, err := newFacebook(srv.URL).GetEngagement(context.Background(), "tok", "p1_5")
	require.NoError(t, err)
	assert.Equal(t, 21, m.Likes)
	assert.Equal(t, 6, m.Comments)
	assert.Equal(t, 4, m.Shares)
	assert.Equal(t, 1500, m.Impressions)
	assert.Equal(t, 1200, m.Reach)
	assert.Equal(t, 33, m.Clicks)
}

func TestFacebookGetEngagement_InsightsFailureIsNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p1_5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"likes":{"summary":{"total_count":3}},"comments":{"summary":{"total_count":1}},"shares":{"count":0}}`))
	})
	mux.HandleFunc("/p1_5/insights", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m, err := newFacebook(srv.URL).GetEngagement(context.Background(), "tok", "p1_5")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Likes)
	assert.Equal(t, 0, m.Impressions)
}
