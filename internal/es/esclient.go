package es

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

type Config struct {
	URL      string
	User     string
	Password string
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// NewClient connects and checks the cluster answers before returning.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "elasticsearch")
	l.Info("es_connecting", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	l.Info("es_connected")
	return client, nil
}
