package enrichment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aws-console-lab/internal/enrichment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindVideosWithoutKeyIsNoOp(t *testing.T) {
	client := enrichment.NewYouTubeClient("", "", time.Second)

	videos, err := client.FindVideos(context.Background(), []string{"EC2 basics"}, 1)
	require.NoError(t, err)
	assert.Nil(t, videos)
}

func TestFindVideosMapsSearchResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "Review EC2 instance types. AWS tutorial", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": {"videoId": "abc123"},
					"snippet": {
						"title": "EC2 instance types explained",
						"description": "A walkthrough of EC2 instance families.",
						"channelTitle": "Cloud Channel",
						"thumbnails": {"medium": {"url": "https://i.ytimg.com/vi/abc123/mqdefault.jpg"}}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := enrichment.NewYouTubeClient(server.URL, "test-key", time.Second)
	videos, err := client.FindVideos(context.Background(), []string{"Review EC2 instance types."}, 1)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, "abc123", v.VideoID)
	assert.Equal(t, "EC2 instance types explained", v.Title)
	assert.Equal(t, "Cloud Channel", v.ChannelTitle)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", v.URL)
	assert.Equal(t, "Review EC2 instance types.", v.RelatedTo)
}

func TestFindVideosKeepsResultsOnLaterFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"id": {"videoId": "ok1"}, "snippet": {"title": "First"}}]}`))
	}))
	defer server.Close()

	client := enrichment.NewYouTubeClient(server.URL, "test-key", time.Second)
	videos, err := client.FindVideos(context.Background(), []string{"topic one", "topic two"}, 1)
	assert.Error(t, err)
	// O primeiro tópico já encontrado não se perde
	require.Len(t, videos, 1)
	assert.Equal(t, "ok1", videos[0].VideoID)
}
