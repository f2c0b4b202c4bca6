package api

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// Download streams the content behind rawURL into w. Relative URLs are
// resolved against the client's base URL. Artifact download URLs are
// self-authorizing, so no bearer header is attached.
func (c *HTTPClient) Download(ctx context.Context, rawURL string, w io.Writer) error {
	url := rawURL
	if strings.HasPrefix(rawURL, "/") {
		url = c.baseURL + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return newStatusError(resp.StatusCode, body)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
