package heroes

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-print"
	"github.com/google/uuid"

	herodb "github.com/rongrafil/superhero-database-auth"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// TokenSource reports the live session, if any. herodb.SessionSubject
// satisfies this.
type TokenSource interface {
	Current() *herodb.Session
}

// Evictor is the forced-logout hook invoked on 401/403 responses while a
// session is live. herodb.Service satisfies this.
type Evictor interface {
	EvictSession(ctx context.Context, reason string)
}

// Config holds the GraphQL endpoint coordinates. Endpoint and APIKey come out
// of the provisioning stack's deploy outputs.
type Config struct {
	Endpoint string
	APIKey   string

	// BearerOnMutation makes mutations also carry the live session's bearer
	// token in the Authorization header.
	BearerOnMutation bool

	HTTPClient *http.Client
}

// Client talks to the hero GraphQL backend.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     TokenSource
	evictor    Evictor
	logger     herodb.Logger
}

// NewFromConfig builds a client from the application-level configuration.
func NewFromConfig(cfg herodb.Config) *Client {
	return New(Config{
		Endpoint:         cfg.GetGraphQLEndpoint(),
		APIKey:           cfg.GetAPIKey(),
		BearerOnMutation: cfg.GetBearerOnMutation(),
		HTTPClient:       &http.Client{Timeout: cfg.GetRequestTimeout()},
	})
}

// New creates a hero data-access client.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
		logger:     nopLogger{},
	}
}

// WithLogger overrides the client logger.
func (c *Client) WithLogger(logger herodb.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithTokenSource wires the live session, used for bearer-carrying mutations
// and to decide whether a 401/403 needs an eviction.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	c.tokens = tokens
	return c
}

// WithEvictor wires the forced-logout hook.
func (c *Client) WithEvictor(evictor Evictor) *Client {
	c.evictor = evictor
	return c
}

// Get fetches a single record by primary key. Returns (nil, nil) when the id
// is unknown to the backend.
func (c *Client) Get(ctx context.Context, id string) (*HeroRecord, error) {
	var record *HeroRecord
	if err := c.do(ctx, getHeroRequest(id), &record); err != nil {
		return nil, err
	}
	return record, nil
}

// List fetches the first page of at most count records.
func (c *Client) List(ctx context.Context, count int) (*HeroPage, error) {
	return c.ListFrom(ctx, count, "")
}

// ListFrom fetches a page continuing from a previous page's NextToken.
func (c *Client) ListFrom(ctx context.Context, count int, nextToken string) (*HeroPage, error) {
	page := &HeroPage{}
	if err := c.do(ctx, allHeroesRequest(count, nextToken), page); err != nil {
		return nil, err
	}
	return page, nil
}

// ListByName looks heroes up on the name index.
func (c *Client) ListByName(ctx context.Context, heroName string) (*HeroPage, error) {
	page := &HeroPage{}
	if err := c.do(ctx, allHeroesByHeroNameRequest(heroName), page); err != nil {
		return nil, err
	}
	return page, nil
}

// ListByPowers looks heroes up on the free-text powers index.
func (c *Client) ListByPowers(ctx context.Context, powers string) (*HeroPage, error) {
	page := &HeroPage{}
	if err := c.do(ctx, allHeroesByPowersRequest(powers), page); err != nil {
		return nil, err
	}
	return page, nil
}

// Add inserts a record; the backend assigns the id. The returned record
// carries the minimal echoed field set.
func (c *Client) Add(ctx context.Context, input HeroInput) (*HeroRecord, error) {
	record := &HeroRecord{}
	if err := c.do(ctx, addHeroRequest(input), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Update overwrites all fields of the record with the given id.
func (c *Client) Update(ctx context.Context, id string, input HeroInput) (*HeroRecord, error) {
	record := &HeroRecord{}
	if err := c.do(ctx, updateHeroRequest(id, input), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a record by id, returning the deleted record's fields.
func (c *Client) Delete(ctx context.Context, id string) (*HeroRecord, error) {
	record := &HeroRecord{}
	if err := c.do(ctx, deleteHeroRequest(id), record); err != nil {
		return nil, err
	}
	return record, nil
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []envelopeError            `json:"errors"`
}

type envelopeError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: %v", herodb.ErrMalformedResponse, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", herodb.ErrService, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("x-request-id", uuid.NewString())
	if req.mutation && c.config.BearerOnMutation {
		if session := c.currentSession(); session != nil {
			httpReq.Header.Set("Authorization", "Bearer "+session.Token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %s", herodb.ErrTimeout, req.operation)
		}
		return fmt.Errorf("%w: %v", herodb.ErrService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", herodb.ErrMalformedResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classifyStatus(ctx, resp.StatusCode, resp.Status, raw)
	}

	c.logger.Debug("graphql %s response: %s", req.operation, print.MaybePrettyJSON(json.RawMessage(raw)))

	return c.unwrap(req, raw, out)
}

// classifyStatus turns a non-2xx response into a typed error. 401/403 while a
// session is live evicts the session first; the eviction always
// happens-before the error reaches the caller.
func (c *Client) classifyStatus(ctx context.Context, code int, status string, raw []byte) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		if c.evictor != nil && c.currentSession() != nil {
			c.evictor.EvictSession(ctx, fmt.Sprintf("graphql endpoint returned %s", status))
		}
		return fmt.Errorf("%w: %s", herodb.ErrAuthorization, status)
	}

	if msg := serviceMessage(raw); msg != "" {
		return fmt.Errorf("%w: %s", herodb.ErrService, msg)
	}
	return fmt.Errorf("%w: %s", herodb.ErrService, status)
}

// unwrap parses the response envelope and extracts the single populated
// result field, which must be named after the invoked operation.
func (c *Client) unwrap(req Request, raw []byte, out any) error {
	env := envelope{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", herodb.ErrMalformedResponse, err)
	}

	// Resolver failures come back as 200s with an errors array.
	if len(env.Errors) > 0 {
		return fmt.Errorf("%w: %s", herodb.ErrService, env.Errors[0].Message)
	}

	if len(env.Data) != 1 {
		return fmt.Errorf("%w: %s envelope has %d result fields",
			herodb.ErrUnexpectedEnvelope, req.operation, len(env.Data))
	}

	result, ok := env.Data[req.operation]
	if !ok {
		return fmt.Errorf("%w: envelope does not carry %q",
			herodb.ErrUnexpectedEnvelope, req.operation)
	}

	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("%w: %v", herodb.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) currentSession() *herodb.Session {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.Current()
}

func serviceMessage(raw []byte) string {
	parsed := struct {
		Message string `json:"message"`
	}{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	return parsed.Message
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return stderrors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
