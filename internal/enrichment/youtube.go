package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aws-console-lab/internal/domain"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeClient procura vídeos na Data API v3, um tópico de cada vez.
// Sem API key devolve (nil, nil); o scorer sintetiza o fallback.
type YouTubeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewYouTubeClient(baseURL, apiKey string, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	return &YouTubeClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *YouTubeClient) FindVideos(ctx context.Context, improvements []string, perTopic int) ([]domain.Video, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	if perTopic <= 0 {
		perTopic = 1
	}

	var videos []domain.Video
	for _, improvement := range improvements {
		found, err := c.search(ctx, improvement, perTopic)
		if err != nil {
			// Falha num tópico não deita fora o que já foi encontrado.
			return videos, err
		}
		videos = append(videos, found...)
	}
	return videos, nil
}

func (c *YouTubeClient) search(ctx context.Context, improvement string, maxResults int) ([]domain.Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("q", improvement+" AWS tutorial")
	params.Set("key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("falha ao chamar a API do YouTube: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API do YouTube devolveu status %d", resp.StatusCode)
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("resposta do YouTube inválida: %w", err)
	}

	videos := make([]domain.Video, 0, len(search.Items))
	for _, item := range search.Items {
		videos = append(videos, domain.Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Description:  item.Snippet.Description,
			RelatedTo:    improvement,
		})
	}
	return videos, nil
}
