package diasend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/errors"
)

//go:generate mockgen --build_flags=--mod=mod -source=./client.go -destination=./test/mock_source.go -package test Source

// Source provides the raw telemetry of a diasend account.
type Source interface {
	// FetchRecords returns all records created within [from, to], in no particular order.
	FetchRecords(ctx context.Context, from, to time.Time) ([]Record, error)
}

type Client struct {
	baseUrl       string
	httpClient    *http.Client
	authenticator Authenticator
	location      *time.Location
	logger        *zap.SugaredLogger
}

var _ Source = &Client{}

func NewClient(cfg *Config, authenticator Authenticator, httpClient *http.Client, location *time.Location, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseUrl:       strings.TrimSuffix(cfg.ApiUrl, "/"),
		httpClient:    httpClient,
		authenticator: authenticator,
		location:      location,
		logger:        logger,
	}
}

func (c *Client) FetchRecords(ctx context.Context, from, to time.Time) ([]Record, error) {
	token, err := c.authenticator.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to obtain diasend access token: %w", err)
	}

	query := url.Values{}
	query.Set("type", "cgm")
	query.Set("date_from", from.In(c.location).Format(TimestampLayout))
	query.Set("date_to", to.In(c.location).Format(TimestampLayout))
	query.Set("unit", "mg_dl")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+"/patient/data?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch patient data: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read patient data: %w", err)
	}

	if res.StatusCode == http.StatusUnauthorized {
		c.authenticator.Invalidate()
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch patient data: %w", errors.FromResponse(res.StatusCode, body))
	}

	records, invalid, err := DecodePatientData(body, c.location)
	if err != nil {
		return nil, err
	}
	for _, e := range invalid {
		c.logger.Warnw("skipping undecodable diasend record", zap.Error(e))
	}

	c.logger.Debugw("fetched diasend records", "from", from, "to", to, "count", len(records))
	return records, nil
}
