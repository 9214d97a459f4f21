package diasend

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"golang.org/x/oauth2"
)

const (
	gracePeriod      = time.Second * 30
	defaultCacheSize = 16
	// Lifetime assumed for tokens issued without expires_in when no maximum TTL is configured.
	defaultTokenTTL  = time.Hour
)

type Authenticator interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	// Invalidate drops the cached token, e.g. after the API rejected it.
	Invalidate()
}

type tokenCacheEntry struct {
	token  *oauth2.Token
	expiry time.Time
}

// PasswordAuthenticator obtains tokens with the OAuth2 password grant and
// caches them per account until shortly before they expire.
type PasswordAuthenticator struct {
	config     *oauth2.Config
	username   string
	password   string
	maxTTL     time.Duration
	httpClient *http.Client
	lru        *simplelru.LRU
	mu         *sync.Mutex
	now        func() time.Time
}

var _ Authenticator = &PasswordAuthenticator{}

func NewAuthenticator(cfg *Config, httpClient *http.Client) (*PasswordAuthenticator, error) {
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(defaultCacheSize, onEvict)
	if err != nil {
		return nil, err
	}

	return &PasswordAuthenticator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientId,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimSuffix(cfg.ApiUrl, "/") + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			Scopes: []string{Scope},
		},
		username:   cfg.Username,
		password:   cfg.Password,
		maxTTL:     cfg.TokenMaxTTL,
		httpClient: httpClient,
		lru:        lru,
		mu:         &sync.Mutex{},
		now:        time.Now,
	}, nil
}

func (a *PasswordAuthenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.lru.Get(a.username); ok {
		entry := e.(tokenCacheEntry)
		if a.now().Before(entry.expiry.Add(-gracePeriod)) {
			return entry.token, nil
		}
		a.lru.Remove(a.username)
	}

	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	token, err := a.config.PasswordCredentialsToken(ctx, a.username, a.password)
	if err != nil {
		return nil, err
	}

	_ = a.lru.Add(a.username, tokenCacheEntry{
		token:  token,
		expiry: a.expiry(token),
	})

	return token, nil
}

func (a *PasswordAuthenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lru.Remove(a.username)
}

func (a *PasswordAuthenticator) expiry(token *oauth2.Token) time.Time {
	expiry := token.Expiry
	if a.maxTTL > 0 {
		capped := a.now().Add(a.maxTTL)
		if expiry.IsZero() || capped.Before(expiry) {
			expiry = capped
		}
	}
	if expiry.IsZero() {
		expiry = a.now().Add(defaultTokenTTL)
	}
	return expiry
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client that identifies itself as the diasend mobile app.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: userAgentTransport{base: http.DefaultTransport},
	}
}
