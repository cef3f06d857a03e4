package herodb

import "time"

// Config holds the session layer's options.
type Config interface {
	GetGraphQLEndpoint() string
	GetAPIKey() string
	GetBearerOnMutation() bool
	GetRequestTimeout() time.Duration
	GetLoginRoute() string
	GetJWKSEndpoint() string
	GetPhoneRegion() string
}

var _ Config = &ConfigObject{}

// ConfigObject is the concrete Config used by hosts that do not carry their
// own configuration type.
type ConfigObject struct {
	// GraphQLEndpoint and APIKey come out of the provisioning stack's deploy
	// outputs; both are required to reach the data backend.
	GraphQLEndpoint string `json:"graphql_endpoint"`
	APIKey          string `json:"graphql_api_key"`

	// BearerOnMutation makes mutating requests also carry the live session's
	// bearer token. The backend accepts API-key-only authorization, so this
	// stays off unless the deployment requires it.
	BearerOnMutation bool `json:"bearer_on_mutation"`

	// RequestTimeout bounds every outbound call. Zero means the 10s default.
	RequestTimeout time.Duration `json:"request_timeout"`

	// LoginRoute is the anonymous entry point logout redirects to.
	LoginRoute string `json:"login_route"`

	// JWKSEndpoint enables signature validation of persisted bearer tokens at
	// boot. Empty means persisted sessions are trusted as-is.
	JWKSEndpoint string `json:"jwks_endpoint"`

	// PhoneRegion is the default region for normalizing phone attributes on
	// registration.
	PhoneRegion string `json:"phone_region"`
}

const (
	defaultRequestTimeout = 10 * time.Second
	defaultLoginRoute     = "/account/login"
	defaultPhoneRegion    = "US"
)

func (c *ConfigObject) GetGraphQLEndpoint() string { return c.GraphQLEndpoint }

func (c *ConfigObject) GetAPIKey() string { return c.APIKey }

func (c *ConfigObject) GetBearerOnMutation() bool { return c.BearerOnMutation }

func (c *ConfigObject) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *ConfigObject) GetLoginRoute() string {
	if c.LoginRoute == "" {
		return defaultLoginRoute
	}
	return c.LoginRoute
}

func (c *ConfigObject) GetJWKSEndpoint() string { return c.JWKSEndpoint }

func (c *ConfigObject) GetPhoneRegion() string {
	if c.PhoneRegion == "" {
		return defaultPhoneRegion
	}
	return c.PhoneRegion
}
