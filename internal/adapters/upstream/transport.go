package upstream

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

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 4 << 20

	// algunas APIs (tracker.gg, youtube) rechazan clientes sin UA de navegador
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Client es el transporte HTTP compartido por todas las fuentes. Sin estado mutable: se comparte libre.
type Client struct {
	name    string
	http    *http.Client
	baseURL string
	header  http.Header
}

func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: baseURL,
		header:  http.Header{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return c.name }

// doJSON: arma URL, maneja 404 y 429 con Retry-After simple, decodifica out.
func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, out any) error {
	body, err := c.do(ctx, method, path, q, "application/json", true)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(io.LimitReader(body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", c.name, err)
	}
	return nil
}

// getText devuelve el cuerpo crudo (páginas HTML).
func (c *Client) getText(ctx context.Context, path string, q url.Values) (string, error) {
	body, err := c.do(ctx, http.MethodGet, path, q, "text/html", true)
	if err != nil {
		return "", err
	}
	defer body.Close()
	b, err := io.ReadAll(io.LimitReader(body, maxBody))
	if err != nil {
		return "", fmt.Errorf("%s read: %w", c.name, err)
	}
	return string(b), nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, accept string, retry bool) (io.ReadCloser, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.name, err)
	}
	req.Header.Set("Accept", accept)
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s http: %w", c.name, err)
	}

	if res.StatusCode == http.StatusTooManyRequests && retry {
		ra := res.Header.Get("Retry-After")
		res.Body.Close()
		// backoff básico leyendo Retry-After (segundos), un solo reintento
		if sec, _ := strconv.Atoi(ra); sec > 0 {
			select {
			case <-time.After(time.Duration(sec) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return c.do(ctx, method, path, q, accept, false)
		}
		return nil, &APIError{Source: c.name, Status: http.StatusTooManyRequests}
	}

	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil, ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		res.Body.Close()
		return nil, &APIError{Source: c.name, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return res.Body, nil
}
