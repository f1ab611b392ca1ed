// Package auth resolves the Salesforce session used for API calls and
// renews it with an OAuth refresh token when the org rejects it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/models"
	"github.com/asteroid-belt/metascope/internal/salesforce"
)

var (
	// ErrNotLoggedIn means no access token is configured or stored.
	ErrNotLoggedIn = errors.New("not logged in: run 'metascope login' or set METASCOPE_ACCESS_TOKEN")

	// ErrReauthRequired means the session expired and could not be renewed.
	ErrReauthRequired = errors.New("salesforce session expired and could not be refreshed: run 'metascope login' again")
)

// Source says where the current session came from.
type Source string

const (
	SourceNone        Source = "none"
	SourceEnvironment Source = "environment"
	SourceStored      Source = "stored"
	SourceRefreshed   Source = "refreshed"
)

// Store persists the org login.
type Store interface {
	GetCredential() (*models.Credential, error)
	SaveCredential(cred *models.Credential) error
	DeleteCredential() error
}

// Authenticator hands out sessions and renews them on expiry. It never
// refreshes on its own; callers go through Do or call Refresh.
type Authenticator struct {
	store  Store
	config config.SalesforceConfig
	http   *http.Client

	mu      sync.Mutex
	current *salesforce.Session
	source  Source
}

// New creates an Authenticator. store may be nil when the environment
// supplies the session; httpClient nil uses http.DefaultClient.
func New(store Store, cfg config.SalesforceConfig, httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Authenticator{
		store:  store,
		config: cfg,
		http:   httpClient,
		source: SourceNone,
	}
}

// Session returns the session to use. Environment settings win over the
// stored credential; a session renewed in this process wins over both.
func (a *Authenticator) Session() (salesforce.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		return *a.current, nil
	}

	if a.config.InstanceURL != "" && a.config.AccessToken != "" {
		a.remember(a.config.InstanceURL, a.config.AccessToken, SourceEnvironment)
		return *a.current, nil
	}

	cred, err := a.credential()
	if err != nil {
		return salesforce.Session{}, err
	}
	if cred == nil || cred.AccessToken == "" {
		return salesforce.Session{}, ErrNotLoggedIn
	}

	a.remember(cred.InstanceURL, cred.AccessToken, SourceStored)
	return *a.current, nil
}

// Source reports where the last resolved session came from.
func (a *Authenticator) Source() Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// Refresh exchanges the refresh token for a new access token and stores it.
// Any failure is reported as ErrReauthRequired.
func (a *Authenticator) Refresh(ctx context.Context) (salesforce.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	refreshToken, instanceURL := a.config.RefreshToken, a.config.InstanceURL

	cred, err := a.credential()
	if err != nil {
		return salesforce.Session{}, err
	}
	if cred != nil {
		if refreshToken == "" {
			refreshToken = cred.RefreshToken
		}
		if instanceURL == "" {
			instanceURL = cred.InstanceURL
		}
	}

	if refreshToken == "" {
		return salesforce.Session{}, fmt.Errorf("%w: no refresh token", ErrReauthRequired)
	}
	if a.config.ClientID == "" {
		return salesforce.Session{}, fmt.Errorf("%w: no OAuth client id configured", ErrReauthRequired)
	}

	oauthCfg := a.oauthConfig()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.http)
	tok, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		log.Event("auth", "refresh").Since(start).Write(log.Default(), err)
		return salesforce.Session{}, fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	if v, ok := tok.Extra("instance_url").(string); ok && v != "" {
		instanceURL = strings.TrimRight(v, "/")
	}
	if instanceURL == "" {
		return salesforce.Session{}, fmt.Errorf("%w: token response has no instance url", ErrReauthRequired)
	}

	if a.store != nil {
		next := &models.Credential{
			InstanceURL:  instanceURL,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			IssuedAt:     time.Now(),
		}
		if err := a.store.SaveCredential(next); err != nil {
			return salesforce.Session{}, fmt.Errorf("save refreshed credential: %w", err)
		}
	}

	log.Event("auth", "refresh").
		Detail("instance", instanceURL).
		Since(start).
		Write(log.Default(), nil)

	a.remember(instanceURL, tok.AccessToken, SourceRefreshed)
	return *a.current, nil
}

// Do runs fn with the current session. When fn fails because the session
// expired, Do refreshes once and runs fn once more.
func (a *Authenticator) Do(ctx context.Context, fn func(ctx context.Context, sess salesforce.Session) error) error {
	sess, err := a.Session()
	if err != nil {
		return err
	}

	err = fn(ctx, sess)
	if !salesforce.IsSessionExpired(err) {
		return err
	}

	log.Event("auth", "expired").Write(log.Default(), err)
	sess, err = a.Refresh(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, sess)
	if salesforce.IsSessionExpired(err) {
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	return err
}

var validate = validator.New()

// Login stores a credential supplied by the user and makes it current.
func (a *Authenticator) Login(instanceURL, accessToken, refreshToken string) (*models.Credential, error) {
	instanceURL = strings.TrimRight(strings.TrimSpace(instanceURL), "/")
	accessToken = strings.TrimSpace(accessToken)

	if err := validate.Var(instanceURL, "required,url,startswith=https://"); err != nil {
		return nil, fmt.Errorf("invalid instance url %q: must be an https URL", instanceURL)
	}
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}
	if a.store == nil {
		return nil, errors.New("no credential store available")
	}

	cred := &models.Credential{
		InstanceURL:  instanceURL,
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
		IssuedAt:     time.Now(),
	}
	if err := a.store.SaveCredential(cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.remember(cred.InstanceURL, cred.AccessToken, SourceStored)
	return cred, nil
}

// Logout deletes the stored credential and forgets the current session.
func (a *Authenticator) Logout() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = nil
	a.source = SourceNone
	if a.store == nil {
		return nil
	}
	return a.store.DeleteCredential()
}

// AuthCodeURL returns the browser URL that starts a web-server OAuth flow.
func (a *Authenticator) AuthCodeURL(state, redirectURL string) string {
	cfg := a.oauthConfig()
	cfg.RedirectURL = redirectURL
	return cfg.AuthCodeURL(state)
}

func (a *Authenticator) oauthConfig() *oauth2.Config {
	login := strings.TrimRight(a.config.LoginURL, "/")
	return &oauth2.Config{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		Scopes:       []string{"api", "refresh_token"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   login + "/services/oauth2/authorize",
			TokenURL:  login + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (a *Authenticator) credential() (*models.Credential, error) {
	if a.store == nil {
		return nil, nil
	}
	cred, err := a.store.GetCredential()
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return cred, nil
}

// remember must be called with mu held.
func (a *Authenticator) remember(instanceURL, accessToken string, source Source) {
	a.current = &salesforce.Session{
		InstanceURL: instanceURL,
		AccessToken: accessToken,
		APIVersion:  a.config.APIVersion,
	}
	a.source = source
}
