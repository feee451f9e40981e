package solr

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/valyala/fastjson"
	"golang.org/x/net/idna"
)

// Client sends rendered query parameters to a Solr core.
type Client struct {
	client    *http.Client
	selectURL string
	headers   http.Header
}

func NewClient(cfg *config.SolrConfig) (*Client, error) {
	selectURL, err := buildSelectURL(cfg.BaseURL, cfg.Core)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.ProxyEnabled {
		proxyUrl, err := url.Parse(cfg.ProxyUrl)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyUrl)
		} else {
			log.Printf("failed to load the proxy : %s. Please check the config file", cfg.ProxyUrl)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		selectURL: selectURL,
		headers: http.Header{
			"Accept":       []string{"application/json"},
			"Content-Type": []string{"application/x-www-form-urlencoded; charset=UTF-8"},
		},
	}, nil
}

// buildSelectURL resolves <base>/<core>/select, converting internationalised host
// names to their ASCII form.
func buildSelectURL(base, core string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid solr base url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("solr base url %q must be http or https", base)
	}
	host, err := idna.Lookup.ToASCII(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("invalid solr host %q: %w", u.Hostname(), err)
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + url.PathEscape(core) + "/select"
	return u.String(), nil
}

func (c *Client) SelectURL() string { return c.selectURL }

// Select posts params as a form body and returns the raw JSON response.
func (c *Client) Select(ctx context.Context, params url.Values) ([]byte, error) {
	form := make(url.Values, len(params)+1)
	for k, v := range params {
		form[k] = v
	}
	form.Set("wt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.selectURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, vals := range c.headers {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if msg := ErrorMessage(body); msg != "" {
			return nil, fmt.Errorf("bad response status: %s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("bad response status: %s", resp.Status)
	}
	return body, nil
}

// NumFound extracts response.numFound from a Solr JSON response.
func NumFound(body []byte) (int64, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse solr response: %w", err)
	}
	numFound := v.Get("response", "numFound")
	if numFound == nil {
		return 0, fmt.Errorf("solr response has no response.numFound")
	}
	return numFound.Int64()
}

// ErrorMessage returns error.msg of a Solr error response, or "".
func ErrorMessage(body []byte) string {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return ""
	}
	return string(v.GetStringBytes("error", "msg"))
}
