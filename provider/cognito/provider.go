package cognito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	herodb "github.com/rongrafil/superhero-database-auth"
)

const (
	defaultEndpointFormat = "https://cognito-idp.%s.amazonaws.com/"
	targetPrefix          = "AWSCognitoIdentityProviderService."
	contentType           = "application/x-amz-json-1.1"
)

// Config holds the user-pool client coordinates.
type Config struct {
	// Region is the pool's AWS region, used to derive the endpoint.
	Region string

	// ClientID is the app client id issued by the pool.
	ClientID string

	// Endpoint overrides the derived endpoint (tests, local emulators).
	Endpoint string

	HTTPClient *http.Client
}

// Provider implements herodb.IdentityProvider backed by a Cognito user pool.
type Provider struct {
	config     Config
	endpoint   string
	httpClient *http.Client

	// mu guards accessToken, remembered from the last successful sign-in so
	// GlobalSignOut can present it.
	mu          sync.Mutex
	accessToken string
}

var _ herodb.IdentityProvider = &Provider{}

// New creates a Cognito-backed identity provider.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("cognito: client id is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if strings.TrimSpace(cfg.Region) == "" {
			return nil, fmt.Errorf("cognito: region or endpoint is required")
		}
		endpoint = fmt.Sprintf(defaultEndpointFormat, cfg.Region)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		endpoint:   endpoint,
		httpClient: client,
	}, nil
}

type initiateAuthInput struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type initiateAuthOutput struct {
	AuthenticationResult struct {
		AccessToken string `json:"AccessToken"`
	} `json:"AuthenticationResult"`
	ChallengeName string `json:"ChallengeName"`
}

// SignIn implements herodb.IdentityProvider using the USER_PASSWORD_AUTH flow.
func (p *Provider) SignIn(ctx context.Context, username, password string) (*herodb.Session, error) {
	in := initiateAuthInput{
		AuthFlow: "USER_PASSWORD_AUTH",
		ClientID: p.config.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	}

	out := initiateAuthOutput{}
	if err := p.call(ctx, "InitiateAuth", in, &out); err != nil {
		return nil, err
	}

	if out.ChallengeName != "" {
		return nil, fmt.Errorf("cognito: unsupported auth challenge %q", out.ChallengeName)
	}
	if out.AuthenticationResult.AccessToken == "" {
		return nil, fmt.Errorf("cognito: sign-in response carried no access token")
	}

	p.mu.Lock()
	p.accessToken = out.AuthenticationResult.AccessToken
	p.mu.Unlock()

	return &herodb.Session{
		Username: username,
		Token:    out.AuthenticationResult.AccessToken,
	}, nil
}

type attribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type signUpInput struct {
	ClientID       string      `json:"ClientId"`
	Username       string      `json:"Username"`
	Password       string      `json:"Password"`
	UserAttributes []attribute `json:"UserAttributes,omitempty"`
}

// SignUp implements herodb.IdentityProvider.
func (p *Provider) SignUp(ctx context.Context, username, password string, attributes map[string]string) error {
	in := signUpInput{
		ClientID: p.config.ClientID,
		Username: username,
		Password: password,
	}
	for name, value := range attributes {
		in.UserAttributes = append(in.UserAttributes, attribute{Name: name, Value: value})
	}

	return p.call(ctx, "SignUp", in, nil)
}

type confirmSignUpInput struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
}

// ConfirmSignUp implements herodb.IdentityProvider.
func (p *Provider) ConfirmSignUp(ctx context.Context, username, code string) error {
	in := confirmSignUpInput{
		ClientID:         p.config.ClientID,
		Username:         username,
		ConfirmationCode: code,
	}
	return p.call(ctx, "ConfirmSignUp", in, nil)
}

type resendInput struct {
	ClientID string `json:"ClientId"`
	Username string `json:"Username"`
}

// ResendSignUp implements herodb.IdentityProvider.
func (p *Provider) ResendSignUp(ctx context.Context, username string) error {
	in := resendInput{
		ClientID: p.config.ClientID,
		Username: username,
	}
	return p.call(ctx, "ResendConfirmationCode", in, nil)
}

type signOutInput struct {
	AccessToken string `json:"AccessToken"`
}

// SignOut implements herodb.IdentityProvider by revoking the remembered
// access token pool-wide. Without a remembered token it is a no-op.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.accessToken
	p.accessToken = ""
	p.mu.Unlock()

	if token == "" {
		return nil
	}
	return p.call(ctx, "GlobalSignOut", signOutInput{AccessToken: token}, nil)
}

type apiError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

func (p *Provider) call(ctx context.Context, target string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cognito: failed to encode %s request: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cognito: failed to build %s request: %w", target, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Amz-Target", targetPrefix+target)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cognito: %s call failed: %w", target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cognito: failed to read %s response: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(raw, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cognito: failed to decode %s response: %w", target, err)
	}
	return nil
}

// classify maps the service's error types onto the herodb taxonomy. Unknown
// types propagate with type and message intact.
func classify(raw []byte, status string) error {
	apiErr := apiError{}
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Type == "" {
		return fmt.Errorf("cognito: request failed: %s", status)
	}

	// The __type value is occasionally namespace-qualified.
	errType := apiErr.Type
	if idx := strings.LastIndex(errType, "#"); idx >= 0 {
		errType = errType[idx+1:]
	}

	switch errType {
	case "NotAuthorizedException", "UserNotFoundException", "UserNotConfirmedException":
		return fmt.Errorf("%w: %s", herodb.ErrInvalidCredentials, apiErr.Message)
	case "UsernameExistsException":
		return fmt.Errorf("%w: %s", herodb.ErrIdentityAlreadyExists, apiErr.Message)
	case "CodeMismatchException", "ExpiredCodeException":
		return fmt.Errorf("%w: %s", herodb.ErrInvalidConfirmationCode, apiErr.Message)
	default:
		return fmt.Errorf("cognito: %s: %s", errType, apiErr.Message)
	}
}
