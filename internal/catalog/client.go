package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const userAgent = "mangaledger/1.0"

// Client fetches the group's title list from the MangaLib catalog API.
// The query parameters besides the page number are fixed: they select
// the rate/bookmark metadata fields and pin the listing to one team.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	Seed     string
	TargetID int64
}

func NewClient(baseURL, seed string, targetID int64) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Seed:       seed,
		TargetID:   targetID,
	}
}

// Entry is one catalog record. ID is the catalog's own identifier and
// the key titles are deduplicated on.
type Entry struct {
	ID            int64
	NativeName    string
	LocalizedName string
	OriginalName  string
}

// Page is one page of the listing plus the pagination flag.
type Page struct {
	Entries []Entry
	HasNext bool
}

type listResponse struct {
	Data []struct {
		ID      int64  `json:"id"`
		RusName string `json:"rus_name"`
		EngName string `json:"eng_name"`
		Name    string `json:"name"`
	} `json:"data"`
	Meta struct {
		HasNextPage bool `json:"has_next_page"`
	} `json:"meta"`
}

// FetchPage requests one page of the listing. Transient failures are
// retried with exponential backoff; a response that is not the
// expected shape is a *ParseError.
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Add("fields[]", "rate")
	q.Add("fields[]", "rate_avg")
	q.Add("fields[]", "userBookmark")
	q.Set("seed", c.Seed)
	q.Add("site_id[]", "1")
	q.Set("target_id", strconv.FormatInt(c.TargetID, 10))
	q.Set("target_model", "team")
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	body, err := c.fetchJSON(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &ParseError{Err: err}
	}

	out := &Page{HasNext: list.Meta.HasNextPage}
	for _, d := range list.Data {
		if d.ID == 0 {
			return nil, &ParseError{Err: fmt.Errorf("entry without id")}
		}
		out.Entries = append(out.Entries, Entry{
			ID:            d.ID,
			NativeName:    d.RusName,
			LocalizedName: d.EngName,
			OriginalName:  d.Name,
		})
	}
	return out, nil
}

func (c *Client) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
