package upstream

import "net/http"

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithHeader(k, v string) Option {
	return func(c *Client) { c.header.Set(k, v) }
}
func WithBrowserUA() Option { return WithHeader("User-Agent", browserUA) }
