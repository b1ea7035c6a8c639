package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// HasAPIKey reports whether requests will carry a key.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// VolumesRequest maps onto the query parameters of GET /volumes.
type VolumesRequest struct {
	Query      string
	StartIndex int
	MaxResults int
	PrintType  string
	Filter     string
	OrderBy    string
}

// VolumesResponse matches /volumes
type VolumesResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	SelfLink   string     `json:"selfLink"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
	SaleInfo   struct {
		Saleability string `json:"saleability"`
		IsEbook     bool   `json:"isEbook"`
	} `json:"saleInfo"`
	AccessInfo struct {
		Viewability   string `json:"viewability"`
		WebReaderLink string `json:"webReaderLink"`
	} `json:"accessInfo"`
}

type VolumeInfo struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle"`
	Authors       []string    `json:"authors"`
	Publisher     string      `json:"publisher"`
	PublishedDate string      `json:"publishedDate"`
	Description   string      `json:"description"`
	PageCount     int         `json:"pageCount"`
	PrintType     string      `json:"printType"`
	Categories    []string    `json:"categories"`
	AverageRating float64     `json:"averageRating"`
	RatingsCount  int         `json:"ratingsCount"`
	Language      string      `json:"language"`
	PreviewLink   string      `json:"previewLink"`
	InfoLink      string      `json:"infoLink"`
	ImageLinks    *ImageLinks `json:"imageLinks"`
}

type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("googlebooks: unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("googlebooks: unexpected status code: %d: %s", e.StatusCode, e.Body)
}

func (c *Client) Volumes(ctx context.Context, req VolumesRequest) (*VolumesResponse, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("startIndex", strconv.Itoa(req.StartIndex))
	if req.MaxResults > 0 {
		params.Set("maxResults", strconv.Itoa(req.MaxResults))
	}
	if req.PrintType != "" {
		params.Set("printType", req.PrintType)
	}
	if req.Filter != "" {
		params.Set("filter", req.Filter)
	}
	if req.OrderBy != "" {
		params.Set("orderBy", req.OrderBy)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var res VolumesResponse
	if err := c.get(ctx, c.baseURL+"/volumes?"+params.Encode(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("googlebooks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("googlebooks: decode response: %w", err)
	}
	return nil
}
