package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"golang.org/x/oauth2"
)

const (
	// AttrAccessToken holds the upstream access token in Identity.Attributes.
	AttrAccessToken = "oauth2_access_token"
	// AttrRefreshToken holds the upstream refresh token, when one was issued.
	AttrRefreshToken = "oauth2_refresh_token"
)

// OAuth2Config configures an [OAuth2] provider.
type OAuth2Config struct {
	OAuth2 *oauth2.Config
	// UserInfoURL, when set, is fetched with the new token to resolve the
	// identity. Otherwise the identity is read from the token response.
	UserInfoURL string
	// RevocationURL, when set, receives an RFC 7009 revocation on Logout.
	RevocationURL string
	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// OAuth2 authenticates with the resource-owner password credentials grant.
type OAuth2 struct {
	cfg OAuth2Config
}

// NewOAuth2 validates cfg and returns a provider using the resource owner
// password grant against cfg.OAuth2.Endpoint.TokenURL.
func NewOAuth2(cfg OAuth2Config) (*OAuth2, error) {
	if cfg.OAuth2 == nil {
		return nil, errors.New("identity: oauth2 config required")
	}
	if cfg.OAuth2.Endpoint.TokenURL == "" {
		return nil, errors.New("identity: oauth2 token url required")
	}
	return &OAuth2{cfg: cfg}, nil
}

type userInfo struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Role              string `json:"role"`
	TenantID          string `json:"tenant_id"`
}

// Authenticate exchanges creds for a token and resolves the identity behind it.
func (o *OAuth2) Authenticate(ctx context.Context, creds goSession.Credentials) (goSession.Identity, error) {
	ctx = o.clientContext(ctx)

	tok, err := o.cfg.OAuth2.PasswordCredentialsToken(ctx, creds.Identifier, creds.Secret)
	if err != nil {
		return goSession.Identity{}, mapOAuth2Error(err)
	}

	var info userInfo
	if o.cfg.UserInfoURL != "" {
		if err := o.fetchUserInfo(ctx, tok, &info); err != nil {
			return goSession.Identity{}, err
		}
	} else {
		info = userInfo{
			Subject:           extraString(tok, "sub"),
			PreferredUsername: extraString(tok, "preferred_username"),
			Role:              extraString(tok, "role"),
			TenantID:          extraString(tok, "tenant_id"),
		}
	}
	if info.Subject == "" {
		return goSession.Identity{}, fmt.Errorf("%w: token response carries no subject", goSession.ErrAuthenticationFailed)
	}
	if info.PreferredUsername == "" {
		info.PreferredUsername = creds.Identifier
	}

	attrs := map[string]string{AttrAccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		attrs[AttrRefreshToken] = tok.RefreshToken
	}

	return goSession.Identity{
		UserID:     info.Subject,
		TenantID:   info.TenantID,
		Username:   info.PreferredUsername,
		Role:       info.Role,
		Attributes: attrs,
	}, nil
}

// Revoke revokes the access token held by user. It is a no-op without a
// RevocationURL or when the identity carries no token, e.g. after a restore.
func (o *OAuth2) Revoke(ctx context.Context, user goSession.Identity) error {
	token := user.Attributes[AttrAccessToken]
	if o.cfg.RevocationURL == "" || token == "" {
		return nil
	}

	form := url.Values{
		"token":           {token},
		"token_type_hint": {"access_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.RevocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(o.cfg.OAuth2.ClientID), url.QueryEscape(o.cfg.OAuth2.ClientSecret))

	resp, err := o.httpClient().Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity: revocation returned status %d", resp.StatusCode)
	}
	return nil
}

func (o *OAuth2) fetchUserInfo(ctx context.Context, tok *oauth2.Token, out *userInfo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.UserInfoURL, nil)
	if err != nil {
		return err
	}

	resp, err := o.cfg.OAuth2.Client(ctx, tok).Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return goSession.ErrInvalidCredentials
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: userinfo status %d", goSession.ErrNetworkUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: userinfo status %d", goSession.ErrAuthenticationFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode userinfo: %w", goSession.ErrAuthenticationFailed, err)
	}
	return nil
}

func (o *OAuth2) clientContext(ctx context.Context) context.Context {
	if o.cfg.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.cfg.HTTPClient)
}

func (o *OAuth2) httpClient() *http.Client {
	if o.cfg.HTTPClient != nil {
		return o.cfg.HTTPClient
	}
	return http.DefaultClient
}

func mapOAuth2Error(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		switch {
		case re.ErrorCode == "invalid_grant",
			re.ErrorCode == "invalid_client",
			status == http.StatusBadRequest,
			status == http.StatusUnauthorized:
			return goSession.ErrInvalidCredentials
		case status >= 500:
			return fmt.Errorf("%w: token endpoint status %d", goSession.ErrNetworkUnavailable, status)
		default:
			return fmt.Errorf("%w: %w", goSession.ErrAuthenticationFailed, err)
		}
	}
	return mapTransportError(err)
}

func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return goSession.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return goSession.ErrTimeout
		}
		return fmt.Errorf("%w: %w", goSession.ErrNetworkUnavailable, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", goSession.ErrNetworkUnavailable, err)
	}
	return fmt.Errorf("%w: %w", goSession.ErrAuthenticationFailed, err)
}

func extraString(tok *oauth2.Token, key string) string {
	v, _ := tok.Extra(key).(string)
	return v
}
