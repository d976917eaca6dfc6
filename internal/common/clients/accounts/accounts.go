// Package accounts fetches third-party account summaries (mail, calendar,
// tasks) from preconfigured JSON endpoints. Authentication and payload
// interpretation belong to the endpoint and the presentation layer; the core
// treats the body as opaque.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mydash-app/mydash/internal/common/domain"
)

type Client struct {
	http *resty.Client

	// endpoint URL per summary kind, e.g. "gmail" -> https://.../summary
	endpoints map[string]string
}

func NewClient(endpoints map[string]string) *Client {
	return &Client{
		http:      resty.New().SetTimeout(10 * time.Second),
		endpoints: endpoints,
	}
}

// Kinds lists the configured summary kinds.
func (c *Client) Kinds() []string {
	kinds := make([]string, 0, len(c.endpoints))
	for kind := range c.endpoints {
		kinds = append(kinds, kind)
	}

	return kinds
}

func (c *Client) FetchAccountSummary(ctx context.Context, kind string) (*domain.AccountSummary, error) {
	url, ok := c.endpoints[kind]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for account kind %q", kind)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("account summary %s: %w", kind, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("account summary %s: status %s", kind, resp.Status())
	}

	return &domain.AccountSummary{
		Kind:      kind,
		Payload:   append([]byte(nil), resp.Body()...),
		FetchedAt: time.Now(),
	}, nil
}
