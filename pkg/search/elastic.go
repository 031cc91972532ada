package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
)

// Indexer keeps a search index in step with the system of record. Products are never
// deleted, so documents are only ever upserted.
type Indexer interface {
	EnsureIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
}

type Config struct {
	Addresses []string
	Username  string
	Password  string
	Transport http.RoundTripper
}

type Client struct {
	es *elasticsearch.Client
}

func NewClient(cfg *Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client")
	}
	return &Client{es: es}, nil
}

// EnsureIndex creates index with mapping unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "index exists")
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "create index")
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return errors.Errorf("create index %s: %s %s", index, res.Status(), body)
	}
	return nil
}

func (c *Client) Index(ctx context.Context, index, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}

	res, err := c.es.Index(index, bytes.NewReader(data),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "index document")
	}
	return checkResponse(res, "index document "+id)
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return errors.Errorf("%s: %s %s", op, res.Status(), body)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
