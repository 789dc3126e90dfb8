package fetchers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

var errHTMLPage = errors.New("server answered with an html page")

type NetworkOptions struct {
	// Client defaults to NewHTTPClient(DefaultConnectTimeout, DefaultRequestTimeout).
	Client *http.Client
	// Throttle defaults to a private throttle with DefaultConnPerHost.
	Throttle  *HostThrottle
	UserAgent string
	// DefaultScheme is used for scheme relative keys ("//host/x").
	DefaultScheme string
	// SniffHTML rejects html bodies for keys that are not html documents.
	SniffHTML bool
	Metrics   *core.Metrics
}

// Network downloads absolute URLs with HTTP GET, one goroutine per URL,
// bounded per host by its HostThrottle.
type Network struct {
	client        *http.Client
	throttle      *HostThrottle
	userAgent     string
	defaultScheme string
	sniffHTML     bool
	metrics       *core.Metrics
}

func NewNetwork(opts NetworkOptions) *Network {
	n := &Network{
		client:        opts.Client,
		throttle:      opts.Throttle,
		userAgent:     opts.UserAgent,
		defaultScheme: opts.DefaultScheme,
		sniffHTML:     opts.SniffHTML,
		metrics:       opts.Metrics,
	}
	if n.client == nil {
		n.client = NewHTTPClient(DefaultConnectTimeout, DefaultRequestTimeout)
	}
	if n.throttle == nil {
		n.throttle = NewHostThrottle(DefaultConnPerHost, opts.Metrics)
	}
	if n.userAgent == "" {
		n.userAgent = core.UserAgent
	}
	if n.defaultScheme == "" {
		n.defaultScheme = "https"
	}
	return n
}

// NewHTTPClient returns a client whose dial is bounded by connectTimeout and
// whose whole exchange, body included, is bounded by requestTimeout.
func NewHTTPClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}
}

func (n *Network) Throttle() *HostThrottle {
	return n.throttle
}

type request struct {
	key assets.AssetKey
	url *url.URL
}

// Fetch parses every URL before issuing any request, then downloads them
// all. Every request runs to completion; the first error seen is returned.
func (n *Network) Fetch(ctx context.Context, keys []assets.AssetKey) (*assets.RawAssetStore, error) {
	requests := make([]request, 0, len(keys))
	for _, k := range keys {
		u, err := n.parse(k)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request{key: k, url: u})
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		out      = assets.NewRawAssetStore()
	)
	for _, r := range requests {
		wg.Add(1)
		go func(r request) {
			defer wg.Done()
			data, err := n.get(ctx, r)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out.Insert(r.key, data)
		}(r)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (n *Network) parse(k assets.AssetKey) (*url.URL, error) {
	raw := string(k)
	if strings.HasPrefix(raw, "//") {
		raw = n.defaultScheme + ":" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &core.URLParseError{Key: string(k), Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &core.URLParseError{Key: string(k), Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &core.URLParseError{Key: string(k), Err: errors.New("invalid host")}
	}
	return u, nil
}

func (n *Network) get(ctx context.Context, r request) ([]byte, error) {
	release, err := n.throttle.Acquire(ctx, r.url.Host)
	if err != nil {
		return nil, &core.FetchError{Key: string(r.key), Err: err}
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url.String(), nil)
	if err != nil {
		return nil, &core.FetchError{Key: string(r.key), Err: err}
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &core.FetchError{Key: string(r.key), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.FetchError{Key: string(r.key), Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &core.FetchError{Key: string(r.key), Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if n.sniffHTML && !isHTMLKey(r.key) && looksLikeHTML(data) {
		return nil, &core.FetchError{Key: string(r.key), Err: errHTMLPage}
	}

	n.metrics.FetchCompleted(string(r.key), len(data))
	core.LogDebug("downloaded %s (%d bytes)", r.url.Redacted(), len(data))
	return data, nil
}

func isHTMLKey(k assets.AssetKey) bool {
	switch k.Ext() {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Some hosts answer a missing file with 200 and an html error page.
func looksLikeHTML(data []byte) bool {
	head := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(head) > 64 {
		head = head[:64]
	}
	head = bytes.ToLower(head)
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
