package atcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/atcpro/atcpro/internal/validation"
	"github.com/atcpro/atcpro/pkg/models"
)

const (
	sourceKenkoooo = "kenkoooo"
	sourceAtCoder  = "atcoder"

	catalogCachePrefix = "atcoder:catalog:"
)

var editorialLinkPattern = regexp.MustCompile(`editorial/\d+`)

// ClientConfig holds the endpoints and pacing of the live client.
type ClientConfig struct {
	ResourcesURL    string
	APIURL          string
	SiteURL         string
	RequestInterval time.Duration
	Timeout         time.Duration
	UserAgent       string
}

// Client is the live Source backed by kenkoooo.com and atcoder.jp.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	throttles  map[string]*Throttle
	validator  *validation.SchemaValidator
	cache      ResponseCache
	cacheTTL   time.Duration
	observer   RequestObserver
	logger     *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache stores catalog payloads in cache for ttl.
func WithCache(cache ResponseCache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithObserver reports every external call to o.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a live client. Each upstream host gets its own throttle.
func NewClient(cfg ClientConfig, validator *validation.SchemaValidator, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		throttles: map[string]*Throttle{
			sourceKenkoooo: NewThrottle(cfg.RequestInterval),
			sourceAtCoder:  NewThrottle(cfg.RequestInterval),
		},
		validator: validator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Contests(ctx context.Context) ([]models.Contest, error) {
	var contests []models.Contest
	if err := c.getCatalog(ctx, "contests", c.cfg.ResourcesURL+"/contests.json", validation.SchemaContests, &contests); err != nil {
		return nil, err
	}
	return contests, nil
}

func (c *Client) Problems(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	if err := c.getCatalog(ctx, "problems", c.cfg.ResourcesURL+"/merged-problems.json", validation.SchemaProblems, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (c *Client) ProblemModels(ctx context.Context) (models.DifficultyTable, error) {
	table := make(models.DifficultyTable)
	if err := c.getCatalog(ctx, "problem-models", c.cfg.ResourcesURL+"/problem-models.json", validation.SchemaProblemModels, &table); err != nil {
		return nil, err
	}
	return table, nil
}

func (c *Client) Submissions(ctx context.Context, user string, fromSecond int64) ([]models.Submission, error) {
	q := url.Values{}
	q.Set("user", user)
	q.Set("from_second", strconv.FormatInt(fromSecond, 10))

	body, err := c.get(ctx, sourceKenkoooo, c.cfg.APIURL+"/user/submissions?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch submissions of %s: %w", user, err)
	}

	var submissions []models.Submission
	if err := c.validator.DecodeInto(validation.SchemaSubmissions, body, &submissions); err != nil {
		return nil, fmt.Errorf("submissions of %s: %w", user, err)
	}
	return submissions, nil
}

func (c *Client) History(ctx context.Context, user string, n int) ([]models.ContestHistoryEntry, error) {
	historyURL := fmt.Sprintf("%s/users/%s/history?contestType=algo", c.cfg.SiteURL, url.PathEscape(user))
	body, err := c.get(ctx, sourceAtCoder, historyURL)
	if err != nil {
		return nil, fmt.Errorf("fetch history of %s: %w", user, err)
	}
	return ParseHistory(body, n)
}

func (c *Client) EditorialPage(ctx context.Context, contestID, problemID string) ([]byte, error) {
	hubURL := fmt.Sprintf("%s/contests/%s/tasks/%s/editorial", c.cfg.SiteURL, url.PathEscape(contestID), url.PathEscape(problemID))
	hub, err := c.get(ctx, sourceAtCoder, hubURL)
	if err != nil {
		return nil, fmt.Errorf("fetch editorial hub of %s: %w", problemID, err)
	}

	link, err := findEditorialLink(hub)
	if err != nil {
		return nil, fmt.Errorf("editorial hub of %s: %w", problemID, err)
	}

	base, err := url.Parse(hubURL)
	if err != nil {
		return nil, fmt.Errorf("parse hub url: %w", err)
	}
	ref, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse editorial link %q: %w", link, err)
	}

	page, err := c.get(ctx, sourceAtCoder, base.ResolveReference(ref).String())
	if err != nil {
		return nil, fmt.Errorf("fetch editorial of %s: %w", problemID, err)
	}
	return page, nil
}

// findEditorialLink returns the href of the first link to an individual
// editorial on a task's editorial hub.
func findEditorialLink(hub []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(hub))
	if err != nil {
		return "", fmt.Errorf("parse hub: %w", err)
	}
	for _, a := range linkSelector.MatchAll(doc) {
		href := Attr(a, "href")
		if editorialLinkPattern.MatchString(href) {
			return href, nil
		}
	}
	return "", ErrNotFound
}

func (c *Client) getCatalog(ctx context.Context, name, rawURL, schema string, v any) error {
	key := catalogCachePrefix + name

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("catalog", name).Warn("Catalog cache read failed")
		} else if ok {
			if err := c.validator.DecodeInto(schema, cached, v); err == nil {
				c.logger.WithField("catalog", name).Debug("Catalog cache hit")
				return nil
			}
			c.logger.WithField("catalog", name).Warn("Discarding invalid cached catalog")
		}
	}

	body, err := c.get(ctx, sourceKenkoooo, rawURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := c.validator.DecodeInto(schema, body, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.WithError(err).WithField("catalog", name).Warn("Catalog cache write failed")
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, source, rawURL string) ([]byte, error) {
	if err := c.throttles[source].Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.do(ctx, rawURL)
	c.observe(source, err, time.Since(start))

	c.logger.WithFields(logrus.Fields{
		"source":  source,
		"url":     rawURL,
		"latency": time.Since(start),
	}).Debug("External request")

	return body, err
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) observe(source string, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	c.observer.ObserveRequest(source, outcome, d)
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}
