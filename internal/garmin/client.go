package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2beens/garminstats/internal/activities"
	"github.com/2beens/garminstats/internal/telemetry/metrics"
	"github.com/2beens/garminstats/internal/telemetry/tracing"
	"github.com/2beens/garminstats/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultSSOURL        = "https://sso.garmin.com"
	DefaultConnectAPIURL = "https://connectapi.garmin.com"

	// DefaultActivitiesLimit is how many of the latest activities the tools look at.
	DefaultActivitiesLimit = 100

	activitiesPath    = "/activitylist-service/activities/search/activities"
	tokenExchangePath = "/oauth-service/oauth/exchange/user/2.0"
	signinPath        = "/sso/signin"
)

var (
	ErrLoginFailed = errors.New("login failed")
	ErrNotLoggedIn = errors.New("not logged in")
	ErrFetchFailed = errors.New("fetch activities failed")
)

// statusError is returned for non 2xx responses.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}

var (
	csrfRegex   = regexp.MustCompile(`name="_csrf"\s+value="(.+?)"`)
	ticketRegex = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
	titleRegex  = regexp.MustCompile(`<title>(.+?)</title>`)
)

type Client struct {
	ssoURL         string
	connectAPIURL  string
	httpClient     *http.Client
	tokenStore     TokenStore
	metricsManager *metrics.Manager
	now            func() time.Time

	mu    sync.RWMutex
	email string
	token *Token
}

type NewClientParams struct {
	SSOURL         string
	ConnectAPIURL  string
	HTTPClient     *http.Client
	TokenStore     TokenStore
	MetricsManager *metrics.Manager
}

func NewClient(params NewClientParams) (*Client, error) {
	ssoURL := params.SSOURL
	if ssoURL == "" {
		ssoURL = DefaultSSOURL
	}
	connectAPIURL := params.ConnectAPIURL
	if connectAPIURL == "" {
		connectAPIURL = DefaultConnectAPIURL
	}

	// the sso flow relies on session cookies, so every client gets its own jar
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar}
	if params.HTTPClient != nil {
		httpClient.Transport = params.HTTPClient.Transport
		httpClient.Timeout = params.HTTPClient.Timeout
	}

	tokenStore := params.TokenStore
	if tokenStore == nil {
		tokenStore = NewMemoryTokenStore()
	}

	return &Client{
		ssoURL:         strings.TrimSuffix(ssoURL, "/"),
		connectAPIURL:  strings.TrimSuffix(connectAPIURL, "/"),
		httpClient:     httpClient,
		tokenStore:     tokenStore,
		metricsManager: params.MetricsManager,
		now:            time.Now,
	}, nil
}

// Login authenticates against garmin connect, reusing a stored token when one is still valid
// and was issued for the same password.
func (c *Client) Login(ctx context.Context, email, password string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "garmin.client.login")
	defer func() {
		c.countLogin(err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if email == "" || password == "" {
		return fmt.Errorf("%w: missing email or password", ErrLoginFailed)
	}

	if token := c.storedToken(ctx, email, password); token != nil {
		span.SetAttributes(attribute.Bool("token.from-store", true))
		log.Debugf("garmin: reusing stored token for [%s]", email)
		c.setSession(email, token)
		return nil
	}
	span.SetAttributes(attribute.Bool("token.from-store", false))

	ticket, err := c.ssoTicket(ctx, email, password)
	if err != nil {
		return err
	}

	token, err := c.exchangeTicket(ctx, ticket)
	if err != nil {
		return err
	}

	c.setSession(email, token)

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		log.Errorf("garmin: hash password of [%s], token not stored: %s", email, err)
		return nil
	}
	storedToken := *token
	storedToken.PasswordHash = passwordHash
	if err := c.tokenStore.Set(ctx, email, storedToken); err != nil {
		log.Errorf("garmin: store token for [%s]: %s", email, err)
	}

	log.Debugf("garmin: logged in as [%s]", email)
	return nil
}

// storedToken returns the stored token of email when it is valid and password matches, nil otherwise.
func (c *Client) storedToken(ctx context.Context, email, password string) *Token {
	token, err := c.tokenStore.Get(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrTokenNotFound) {
			log.Errorf("garmin: get stored token for [%s]: %s", email, err)
		}
		return nil
	}
	if !token.Valid(c.now()) {
		return nil
	}
	if !pkg.CheckPasswordHash(password, token.PasswordHash) {
		log.Debugf("garmin: stored token of [%s] was issued for another password", email)
		return nil
	}
	return token
}

// dropSession forgets the token of email, both in the client and in the token store.
func (c *Client) dropSession(ctx context.Context, email string) {
	c.mu.Lock()
	if c.email == email {
		c.token = nil
	}
	c.mu.Unlock()

	if err := c.tokenStore.Delete(ctx, email); err != nil {
		log.Errorf("garmin: delete stored token of [%s]: %s", email, err)
	}
}

func (c *Client) setSession(email string, token *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.email = email
	c.token = token
}

func (c *Client) session() (string, *Token) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.email, c.token
}

// LoggedIn reports whether the client holds a token that is still valid.
func (c *Client) LoggedIn() bool {
	_, token := c.session()
	return token.Valid(c.now())
}

func (c *Client) signinURL() string {
	embedURL := c.ssoURL + "/sso/embed"
	query := url.Values{}
	query.Set("id", "gauth-widget")
	query.Set("embedWidget", "true")
	query.Set("gauthHost", embedURL)
	query.Set("service", embedURL)
	query.Set("source", embedURL)
	query.Set("redirectAfterAccountLoginUrl", embedURL)
	query.Set("redirectAfterAccountCreationUrl", embedURL)
	return c.ssoURL + signinPath + "?" + query.Encode()
}

func (c *Client) ssoTicket(ctx context.Context, email, password string) (string, error) {
	signinURL := c.signinURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signinURL, nil)
	if err != nil {
		return "", err
	}
	signinPage, err := c.doRead(req)
	if err != nil {
		return "", fmt.Errorf("%w: get signin page: %s", ErrLoginFailed, err)
	}

	csrfMatch := csrfRegex.FindSubmatch(signinPage)
	if csrfMatch == nil {
		return "", fmt.Errorf("%w: csrf token not found", ErrLoginFailed)
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	form.Set("embed", "true")
	form.Set("_csrf", string(csrfMatch[1]))

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, signinURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", signinURL)

	signinResp, err := c.doRead(req)
	if err != nil {
		return "", fmt.Errorf("%w: post credentials: %s", ErrLoginFailed, err)
	}

	ticketMatch := ticketRegex.FindSubmatch(signinResp)
	if ticketMatch == nil {
		title := "unknown"
		if titleMatch := titleRegex.FindSubmatch(signinResp); titleMatch != nil {
			title = string(titleMatch[1])
		}
		return "", fmt.Errorf("%w: no ticket in signin response [%s]", ErrLoginFailed, title)
	}

	return string(ticketMatch[1]), nil
}

func (c *Client) exchangeTicket(ctx context.Context, ticket string) (*Token, error) {
	form := url.Values{}
	form.Set("ticket", ticket)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.connectAPIURL+tokenExchangePath,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	respBytes, err := c.doRead(req)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange ticket: %s", ErrLoginFailed, err)
	}

	token := &Token{}
	if err := json.Unmarshal(respBytes, token); err != nil {
		return nil, fmt.Errorf("%w: unmarshal token: %s", ErrLoginFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrLoginFailed)
	}
	token.ExpiresAt = c.now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return token, nil
}

// Activities returns up to limit activities, newest first, skipping the first start ones.
func (c *Client) Activities(ctx context.Context, start, limit int) (_ []activities.Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "garmin.client.activities")
	defer func() {
		c.countFetch(err)
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("start", start), attribute.Int("limit", limit))

	email, token := c.session()
	if !token.Valid(c.now()) {
		return nil, ErrNotLoggedIn
	}

	if c.metricsManager != nil {
		defer func(begin time.Time) {
			c.metricsManager.HistFetchDuration.Observe(time.Since(begin).Seconds())
		}(time.Now())
	}

	query := url.Values{}
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(limit))
	activitiesURL := c.connectAPIURL + activitiesPath + "?" + query.Encode()
	log.Debugf("garmin: calling activities api: %s", activitiesURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, activitiesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	respBytes, err := c.doRead(req)
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) &&
			(statusErr.code == http.StatusUnauthorized || statusErr.code == http.StatusForbidden) {
			log.Debugf("garmin: token of [%s] rejected with status %d", email, statusErr.code)
			c.dropSession(ctx, email)
			return nil, fmt.Errorf("%w: token rejected: %s", ErrNotLoggedIn, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err)
	}

	acts, err := activities.ParseList(respBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err)
	}

	if c.metricsManager != nil {
		c.metricsManager.CounterFetchedActivities.Add(float64(len(acts)))
	}
	log.Debugf("garmin: fetched %d activities for [%s]", len(acts), email)

	return acts, nil
}

func (c *Client) doRead(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response bytes: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	return respBytes, nil
}

func (c *Client) countLogin(err error) {
	if c.metricsManager == nil {
		return
	}
	c.metricsManager.CounterLogins.WithLabelValues(statusLabel(err)).Inc()
}

func (c *Client) countFetch(err error) {
	if c.metricsManager == nil {
		return
	}
	c.metricsManager.CounterActivityFetches.WithLabelValues(statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
