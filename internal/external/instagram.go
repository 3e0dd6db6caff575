package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MelvinDY/SGM/internal/httputil"
	"github.com/MelvinDY/SGM/internal/logging"
)

const (
	DefaultInstagramURL = "https://graph.instagram.com"
	instagramFields     = "id,caption,media_url,permalink,timestamp,media_type"
	instagramPageSize   = 20
)

var ErrInstagramNotConfigured = errors.New("instagram credentials not configured")

// MediaType is the Graph API media_type of a post.
type MediaType string

const (
	MediaImage    MediaType = "IMAGE"
	MediaVideo    MediaType = "VIDEO"
	MediaCarousel MediaType = "CAROUSEL_ALBUM"
)

// Post is one item of the business account's media feed.
type Post struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	MediaURL  string    `json:"media_url"`
	Permalink string    `json:"permalink"`
	Timestamp string    `json:"timestamp"`
	MediaType MediaType `json:"media_type"`
}

type InstagramOptions struct {
	BaseURL     string
	AccessToken string
	BusinessID  string
	// Mock serves MockPosts instead of calling the Graph API.
	Mock       bool
	HTTPClient *http.Client
	Retry      httputil.RetryConfig
	Logger     *slog.Logger
}

type InstagramClient struct {
	baseURL    string
	token      string
	businessID string
	mock       bool
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *slog.Logger
}

func NewInstagramClient(opts InstagramOptions) *InstagramClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultInstagramURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		}
	}
	log := logging.OrDiscard(opts.Logger).With("component", "instagram")
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = log
	}
	return &InstagramClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.AccessToken,
		businessID: opts.BusinessID,
		mock:       opts.Mock,
		httpClient: opts.HTTPClient,
		retry:      opts.Retry,
		log:        log,
	}
}

// Configured reports whether FetchPosts can return data.
func (c *InstagramClient) Configured() bool {
	return c.mock || (c.token != "" && c.businessID != "")
}

// FetchPosts returns the latest media of the business account.
func (c *InstagramClient) FetchPosts(ctx context.Context) ([]Post, error) {
	if c.mock {
		return MockPosts(time.Now()), nil
	}
	if c.token == "" || c.businessID == "" {
		return nil, ErrInstagramNotConfigured
	}

	q := url.Values{}
	q.Set("fields", instagramFields)
	q.Set("access_token", c.token)
	q.Set("limit", fmt.Sprint(instagramPageSize))
	endpoint := c.baseURL + "/" + url.PathEscape(c.businessID) + "/media?" + q.Encode()

	var page struct {
		Data []Post `json:"data"`
	}
	if err := httputil.GetJSON(ctx, c.httpClient, c.retry, endpoint, nil, &page); err != nil {
		return nil, fmt.Errorf("instagram fetch: %w", err)
	}
	c.log.Debug("fetched posts", "count", len(page.Data))
	if page.Data == nil {
		return []Post{}, nil
	}
	return page.Data, nil
}

// MockPosts is a fixed demo feed, one post per jewelry category.
func MockPosts(now time.Time) []Post {
	ts := now.UTC().Format(time.RFC3339)
	return []Post{
		{
			ID:        "mock_1",
			Caption:   "Cincin Berlian Premium\n\nDesain eksklusif dengan berlian asli berkualitas tinggi.\n\n#cincin #emas24k #perhiasan",
			MediaURL:  "https://images.unsplash.com/photo-1605100804763-247f67b3557e?w=400&h=400&fit=crop",
			Permalink: "https://instagram.com/p/mock1",
			Timestamp: ts,
			MediaType: MediaImage,
		},
		{
			ID:        "mock_2",
			Caption:   "Kalung Emas Italian Style\n\nRantai halus dengan finishing mewah.\n\n#kalung #emas #italian",
			MediaURL:  "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=400&h=400&fit=crop",
			Permalink: "https://instagram.com/p/mock2",
			Timestamp: ts,
			MediaType: MediaImage,
		},
		{
			ID:        "mock_3",
			Caption:   "Gelang Emas Ukir Tradisional\n\nMotif ukir khas Indonesia.\n\n#gelang #emas24k #tradisional",
			MediaURL:  "https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=400&h=400&fit=crop",
			Permalink: "https://instagram.com/p/mock3",
			Timestamp: ts,
			MediaType: MediaImage,
		},
		{
			ID:        "mock_4",
			Caption:   "Anting Mutiara Elegan\n\nMutiara air tawar pilihan.\n\n#anting #mutiara #elegan",
			MediaURL:  "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=400&h=400&fit=crop",
			Permalink: "https://instagram.com/p/mock4",
			Timestamp: ts,
			MediaType: MediaImage,
		},
	}
}
