package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/metrics"
)

const backendName = "elastic"

// DefaultSniffInterval is the node rediscovery interval when sniffing.
const DefaultSniffInterval = 5 * time.Minute

// Config configures the cluster connection.
//
// A single address with Sniff false talks to that node only. With Sniff
// set the client discovers the cluster's nodes on start and periodically
// afterwards.
type Config struct {
	Addresses     []string
	Username      string
	Password      string
	Sniff         bool
	SniffInterval time.Duration

	// Transport overrides the HTTP transport. Nil uses the client default.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Client is a backend.Client over an Elasticsearch cluster.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	es     *elasticsearch.Client
	logger *slog.Logger
}

var (
	_ backend.Client  = (*Client)(nil)
	_ backend.Indexer = (*Client)(nil)
)

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elastic: at least one address is required")
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	}
	if cfg.Sniff {
		esCfg.DiscoverNodesOnStart = true
		esCfg.DiscoverNodesInterval = cfg.SniffInterval
		if esCfg.DiscoverNodesInterval <= 0 {
			esCfg.DiscoverNodesInterval = DefaultSniffInterval
		}
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elastic: create client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{es: es, logger: logger}, nil
}

// Search runs req through the _search API.
func (c *Client) Search(ctx context.Context, req *backend.SearchRequest) (resp *backend.SearchResponse, err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "search", start, err) }(time.Now())

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("elastic: encode search: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(req.Index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithOpaqueID(req.OpaqueID),
	)
	raw, err := c.read("search", req.Index, res, err)
	if err != nil {
		return nil, err
	}

	resp, err = backend.DecodeSearchResponse(raw, topHitsName(req))
	if err != nil {
		return nil, fmt.Errorf("elastic: %w", err)
	}
	return resp, nil
}

// Count runs req through the _count API.
func (c *Client) Count(ctx context.Context, req *backend.CountRequest) (n int64, err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "count", start, err) }(time.Now())

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("elastic: encode count: %w", err)
	}

	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(req.Index),
		c.es.Count.WithBody(bytes.NewReader(body)),
		c.es.Count.WithOpaqueID(req.OpaqueID),
	)
	raw, err := c.read("count", req.Index, res, err)
	if err != nil {
		return 0, err
	}

	n, err = backend.DecodeCountResponse(raw)
	if err != nil {
		return 0, fmt.Errorf("elastic: %w", err)
	}
	return n, nil
}

// IndexExists reports whether index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (ok bool, err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "index_exists", start, err) }(time.Now())

	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		c.logger.Warn("elasticsearch request failed", "op", "index_exists", "index", index, "error", err)
		return false, fmt.Errorf("elastic: index exists %s: %w", index, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("elastic: index exists %s: %w", index, parseError(res.StatusCode, body))
	}
}

// DeleteIndex removes index.
func (c *Client) DeleteIndex(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "delete_index", start, err) }(time.Now())

	res, err := c.es.Indices.Delete([]string{index}, c.es.Indices.Delete.WithContext(ctx))
	_, err = c.read("delete_index", index, res, err)
	return err
}

// Index stores doc under id. An empty id lets the cluster assign one.
func (c *Client) Index(ctx context.Context, index, id string, doc json.RawMessage) (err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "index", start, err) }(time.Now())

	opts := []func(*esapi.IndexRequest){c.es.Index.WithContext(ctx)}
	if id != "" {
		opts = append(opts, c.es.Index.WithDocumentID(id))
	}
	res, err := c.es.Index(index, bytes.NewReader(doc), opts...)
	_, err = c.read("index", index, res, err)
	return err
}

// Refresh makes indexed documents visible to search.
func (c *Client) Refresh(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "refresh", start, err) }(time.Now())

	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(index),
	)
	_, err = c.read("refresh", index, res, err)
	return err
}

// read drains a response, turning transport failures and non-2xx
// statuses into errors.
func (c *Client) read(op, index string, res *esapi.Response, err error) ([]byte, error) {
	if err != nil {
		c.logger.Warn("elasticsearch request failed", "op", op, "index", index, "error", err)
		return nil, fmt.Errorf("elastic: %s %s: %w", op, index, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("elastic: %s %s: read body: %w", op, index, err)
	}
	if res.IsError() {
		rerr := parseError(res.StatusCode, body)
		c.logger.Warn("elasticsearch error response", "op", op, "index", index, "status", rerr.Status, "type", rerr.Type)
		return nil, fmt.Errorf("elastic: %s %s: %w", op, index, rerr)
	}
	return body, nil
}

// topHitsName finds the sub-aggregation holding bucket documents.
func topHitsName(req *backend.SearchRequest) string {
	for _, agg := range req.Aggregations {
		comp, ok := agg.(dsl.CompositeAggregation)
		if !ok {
			continue
		}
		for name, sub := range comp.Aggs {
			if _, ok := sub.(dsl.TopHitsAggregation); ok {
				return name
			}
		}
	}
	return ""
}
