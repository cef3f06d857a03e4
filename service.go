package herodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// LoginPayload carries credentials for Login.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// RegisterPayload carries the new identity's attributes for Register.
// Phone is optional and normalized to E.164 before it reaches the provider.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate will run validation rules
func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 99)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// ConfirmPayload carries the emailed code for Confirm.
type ConfirmPayload struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// Validate will run validation rules
func (p ConfirmPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Code, validation.Required, is.Digit, validation.Length(4, 8)),
	)
}

// Service is the auth state machine. It orchestrates the identity provider
// and the session subject: provider calls verify or mutate identities, the
// subject owns the resulting session, and every change lands in the
// persistent store before subscribers hear about it.
type Service struct {
	provider  IdentityProvider
	subject   *SessionSubject
	store     SessionStore
	cfg       Config
	logger    Logger
	sink      ActivitySink
	validator TokenValidator
	nav       Navigator

	mu    sync.Mutex
	state AuthState
}

// NewService returns a Service in the anonymous state. Call Start to restore
// a persisted session.
func NewService(provider IdentityProvider, store SessionStore, cfg Config) *Service {
	subject := NewSessionSubject(store)

	return &Service{
		provider: provider,
		subject:  subject,
		store:    store,
		cfg:      cfg,
		logger:   defLogger{},
		sink:     noopActivitySink{},
		nav:      noopNavigator{},
		state:    AuthState{Status: StatusAnonymous},
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
		s.subject.WithLogger(logger)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.sink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets the validator applied to persisted sessions at boot.
func (s *Service) WithTokenValidator(validator TokenValidator) *Service {
	s.validator = validator
	return s
}

// WithNavigator sets the redirect hook used by Logout and EvictSession.
func (s *Service) WithNavigator(nav Navigator) *Service {
	s.nav = normalizeNavigator(nav)
	return s
}

// Subject exposes the session broadcast cell for views and the data client.
func (s *Service) Subject() *SessionSubject {
	return s.subject
}

// State returns the machine's current position.
func (s *Service) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start reads the persisted session once. A stored session puts the machine
// in the authenticated state; when a token validator is configured, sessions
// whose tokens fail validation are discarded from the store instead. Start
// never blocks boot on storage trouble: failures leave the machine anonymous.
func (s *Service) Start(ctx context.Context) error {
	session, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read persisted session, starting anonymous: %v", err)
		return nil
	}
	if session == nil {
		return nil
	}

	if s.validator != nil {
		if err := s.validator.Validate(session.Token); err != nil {
			s.logger.Info("discarding persisted session for %q: %v", session.Username, err)
			if derr := s.store.Delete(ctx); derr != nil {
				s.logger.Error("failed to remove stale session: %v", derr)
			}
			s.emit(ctx, ActivityEventSessionDiscarded, session.Username, map[string]any{
				"error": err.Error(),
			})
			return nil
		}
	}

	s.subject.Seed(session)
	s.setState(AuthState{Status: StatusAuthenticated, Session: session})
	s.emit(ctx, ActivityEventSessionRestored, session.Username, nil)
	return nil
}

// Login verifies credentials with the provider and publishes the resulting
// session. Any provider failure surfaces as ErrInvalidCredentials; the state
// machine does not move.
func (s *Service) Login(ctx context.Context, payload LoginPayload) (*Session, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	session, err := s.provider.SignIn(ctx, payload.Username, payload.Password)
	if err != nil {
		s.logger.Error("login failed for %q: %v", payload.Username, err)
		s.emit(ctx, ActivityEventLoginFailure, payload.Username, map[string]any{
			"error": err.Error(),
		})
		if stderrors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if session == nil || session.Token == "" {
		s.emit(ctx, ActivityEventLoginFailure, payload.Username, map[string]any{
			"error": "provider returned no session",
		})
		return nil, fmt.Errorf("%w: provider returned no session", ErrInvalidCredentials)
	}

	s.subject.Set(ctx, session)
	if err := s.transition(AuthState{Status: StatusAuthenticated, Session: session}); err != nil {
		return nil, err
	}

	s.emit(ctx, ActivityEventLoginSuccess, session.Username, nil)
	return cloneSession(session), nil
}

// Register creates an unconfirmed identity with the provider and moves the
// machine to the awaiting-confirmation state. Duplicate identities surface as
// ErrIdentityAlreadyExists; other provider errors propagate verbatim.
func (s *Service) Register(ctx context.Context, payload RegisterPayload) error {
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	attributes := map[string]string{"email": payload.Email}
	if payload.Phone != "" {
		normalized, err := s.normalizePhone(payload.Phone)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
		}
		attributes["phone_number"] = normalized
	}

	if err := s.provider.SignUp(ctx, payload.Username, payload.Password, attributes); err != nil {
		s.logger.Error("registration failed for %q: %v", payload.Username, err)
		s.emit(ctx, ActivityEventRegisterFailure, payload.Username, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if err := s.transition(AuthState{Status: StatusAwaitingConfirmation, Username: payload.Username}); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventRegisterSuccess, payload.Username, nil)
	return nil
}

// Confirm marks the identity confirmed. Confirmation is a terminal side
// effect, not a session transition: on success the caller still has to log
// in, so a machine that was awaiting confirmation lands back in the
// anonymous state. A live session belonging to someone else is untouched.
func (s *Service) Confirm(ctx context.Context, username, code string) error {
	payload := ConfirmPayload{Username: username, Code: code}
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid confirmation payload")
	}

	if err := s.provider.ConfirmSignUp(ctx, username, code); err != nil {
		s.logger.Error("confirmation failed for %q: %v", username, err)
		s.emit(ctx, ActivityEventConfirmFailure, username, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	s.mu.Lock()
	if s.state.Status == StatusAwaitingConfirmation {
		s.state = AuthState{Status: StatusAnonymous}
	}
	s.mu.Unlock()

	s.emit(ctx, ActivityEventConfirmSuccess, username, nil)
	return nil
}

// Resend asks the provider to re-issue the confirmation code. No state change.
func (s *Service) Resend(ctx context.Context, username string) error {
	if err := validation.Validate(username, validation.Required); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "username is required")
	}

	if err := s.provider.ResendSignUp(ctx, username); err != nil {
		s.logger.Error("resend failed for %q: %v", username, err)
		return err
	}

	s.emit(ctx, ActivityEventCodeResent, username, nil)
	return nil
}

// Logout invalidates the session server-side (best effort), clears the local
// session, and redirects to the anonymous entry point. The local clear and
// redirect happen even when the provider call fails: never block a user out
// of their own client.
func (s *Service) Logout(ctx context.Context) error {
	username := ""
	if current := s.subject.Current(); current != nil {
		username = current.Username
	}

	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.Warn("server-side sign-out failed, clearing local session anyway: %v", err)
	}

	s.clearSession(ctx, ActivityEventLogout, username, nil)
	return nil
}

// EvictSession is the forced-logout path used by the data client on 401/403
// responses. It clears the local session and redirects without calling the
// provider: the token was just refused, there is nothing to invalidate.
func (s *Service) EvictSession(ctx context.Context, reason string) {
	current := s.subject.Current()
	if current == nil {
		return
	}

	s.clearSession(ctx, ActivityEventSessionEvicted, current.Username, map[string]any{
		"reason": reason,
	})
}

func (s *Service) clearSession(ctx context.Context, event ActivityEventType, username string, meta map[string]any) {
	s.subject.Set(ctx, nil)
	s.setState(AuthState{Status: StatusAnonymous})
	s.nav.Push(s.cfg.GetLoginRoute())
	s.emit(ctx, event, username, meta)
}

func (s *Service) transition(next AuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !canTransition(s.state.Status, next.Status) {
		return goerrors.Wrap(ErrInvalidTransition, goerrors.CategoryValidation,
			fmt.Sprintf("cannot move from %s to %s", s.state.Status, next.Status))
	}
	s.state = next
	return nil
}

func (s *Service) setState(next AuthState) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

func (s *Service) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, s.cfg.GetPhoneRegion())
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("not a valid phone number: %s", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func (s *Service) emit(ctx context.Context, eventType ActivityEventType, username string, meta map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		Metadata:   meta,
		OccurredAt: time.Now(),
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink error: %v", err)
	}
}
