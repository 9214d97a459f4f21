package nightscout

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/burnedikt/diasend-nightscout-bridge/errors"
)

//go:generate mockgen --build_flags=--mod=mod -source=./client.go -destination=./test/mock_client.go -package test Client

// Client is the destination of the bridge.
type Client interface {
	FetchTreatments(ctx context.Context, filter Filter) ([]Treatment, error)
	CreateTreatments(ctx context.Context, treatments []Treatment) ([]Treatment, error)
	DeleteTreatments(ctx context.Context, filter Filter) error
	FetchEntries(ctx context.Context, filter Filter) ([]Entry, error)
	CreateEntries(ctx context.Context, entries []Entry) ([]Entry, error)
	FetchProfile(ctx context.Context) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) (*Profile, error)
}

var ErrUnboundedDelete = fmt.Errorf("refusing to delete treatments without a filter")

// RestClient talks to the Nightscout REST API (v1).
type RestClient struct {
	baseUrl    string
	apiSecret  string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ Client = &RestClient{}

func NewRestClient(cfg *Config, logger *zap.SugaredLogger) (*RestClient, error) {
	if cfg.Url == "" {
		return nil, fmt.Errorf("NIGHTSCOUT_URL is required")
	}

	return &RestClient{
		baseUrl:   strings.TrimSuffix(cfg.Url, "/") + "/api/v1",
		apiSecret: hashSecret(cfg.ApiSecret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// Nightscout expects the SHA-1 hex digest of the secret in the api-secret header.
func hashSecret(secret string) string {
	hasher := sha1.New()
	hasher.Write([]byte(secret))
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *RestClient) FetchTreatments(ctx context.Context, filter Filter) ([]Treatment, error) {
	params := c.filterParams(filter)
	if filter.EventType != "" {
		params.Set("find[eventType]", string(filter.EventType))
	}
	if !filter.From.IsZero() {
		params.Set("find[created_at][$gte]", FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		params.Set("find[created_at][$lte]", FormatTime(filter.To))
	}

	var docs []map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/treatments/", params, nil, &docs); err != nil {
		return nil, fmt.Errorf("unable to fetch treatments: %w", err)
	}

	return c.decodeTreatments(docs), nil
}

func (c *RestClient) CreateTreatments(ctx context.Context, treatments []Treatment) ([]Treatment, error) {
	if len(treatments) == 0 {
		return nil, nil
	}

	body := make([]map[string]interface{}, 0, len(treatments))
	for _, t := range treatments {
		body = append(body, Document(t))
	}

	var docs []map[string]interface{}
	if err := c.do(ctx, http.MethodPost, "/treatments/", nil, body, &docs); err != nil {
		return nil, fmt.Errorf("unable to create treatments: %w", err)
	}

	return c.decodeTreatments(docs), nil
}

func (c *RestClient) DeleteTreatments(ctx context.Context, filter Filter) error {
	if filter.ID == "" && filter.EventType == "" && filter.App == "" && filter.From.IsZero() {
		return ErrUnboundedDelete
	}

	params := url.Values{}
	if filter.ID != "" {
		params.Set("find[_id]", filter.ID)
	}
	if filter.App != "" {
		params.Set("find[app]", filter.App)
	}
	if filter.EventType != "" {
		params.Set("find[eventType]", string(filter.EventType))
	}
	if !filter.From.IsZero() {
		params.Set("find[created_at][$gte]", FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		params.Set("find[created_at][$lte]", FormatTime(filter.To))
	}

	if err := c.do(ctx, http.MethodDelete, "/treatments/", params, nil, nil); err != nil {
		return fmt.Errorf("unable to delete treatments: %w", err)
	}
	return nil
}

func (c *RestClient) FetchEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	params := c.filterParams(filter)
	if filter.EntryType != "" {
		params.Set("find[type]", string(filter.EntryType))
	}
	if !filter.From.IsZero() {
		params.Set("find[date][$gte]", strconv.FormatInt(filter.From.UnixMilli(), 10))
	}
	if !filter.To.IsZero() {
		params.Set("find[date][$lte]", strconv.FormatInt(filter.To.UnixMilli(), 10))
	}

	var docs []map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/entries/", params, nil, &docs); err != nil {
		return nil, fmt.Errorf("unable to fetch entries: %w", err)
	}

	return c.decodeEntries(docs), nil
}

func (c *RestClient) CreateEntries(ctx context.Context, entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	body := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		body = append(body, EntryDocument(e))
	}

	var docs []map[string]interface{}
	if err := c.do(ctx, http.MethodPost, "/entries/", nil, body, &docs); err != nil {
		return nil, fmt.Errorf("unable to create entries: %w", err)
	}

	return c.decodeEntries(docs), nil
}

// FetchProfile returns the active profile document, which Nightscout lists first.
func (c *RestClient) FetchProfile(ctx context.Context) (*Profile, error) {
	var docs []map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, nil, &docs); err != nil {
		return nil, fmt.Errorf("unable to fetch profile: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("unable to fetch profile: %w", errors.NotFound)
	}

	return DecodeProfile(docs[0])
}

func (c *RestClient) UpdateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	var doc map[string]interface{}
	if err := c.do(ctx, http.MethodPut, "/profile", nil, profile, &doc); err != nil {
		return nil, fmt.Errorf("unable to update profile: %w", err)
	}

	return DecodeProfile(doc)
}

func (c *RestClient) filterParams(filter Filter) url.Values {
	params := url.Values{}
	params.Set("count", strconv.Itoa(filter.Limit()))
	if filter.ID != "" {
		params.Set("find[_id]", filter.ID)
	}
	if filter.App != "" {
		params.Set("find[app]", filter.App)
	}
	return params
}

func (c *RestClient) decodeTreatments(docs []map[string]interface{}) []Treatment {
	treatments := make([]Treatment, 0, len(docs))
	for _, doc := range docs {
		t, err := DecodeTreatment(doc)
		if err != nil {
			c.logger.Warnw("skipping undecodable treatment", "id", doc["_id"], zap.Error(err))
			continue
		}
		treatments = append(treatments, t)
	}
	return treatments
}

func (c *RestClient) decodeEntries(docs []map[string]interface{}) []Entry {
	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := DecodeEntry(doc)
		if err != nil {
			c.logger.Debugw("skipping entry", "id", doc["_id"], zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func (c *RestClient) do(ctx context.Context, method, path string, params url.Values, body interface{}, out interface{}) error {
	u := c.baseUrl + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-secret", c.apiSecret)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.FromResponse(res.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
