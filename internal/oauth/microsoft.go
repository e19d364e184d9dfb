package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGraphURL = "https://graph.microsoft.com/v1.0"

// MicrosoftConfig configures the Azure AD provider. The endpoint URLs are
// overridable for tests; AuthURL and TokenURL are derived from the tenant
// when empty.
type MicrosoftConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	AuthURL      string
	TokenURL     string
	GraphURL     string
}

type Microsoft struct {
	cfg        MicrosoftConfig
	httpClient *http.Client
}

func NewMicrosoft(cfg MicrosoftConfig) *Microsoft {
	if cfg.AuthURL == "" {
		cfg.AuthURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", cfg.TenantID)
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
	}
	if cfg.GraphURL == "" {
		cfg.GraphURL = defaultGraphURL
	}
	return &Microsoft{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the raw enterprise-directory identifier; identity.NormalizeProvider
// maps it to "microsoft" before it is stored anywhere.
func (m *Microsoft) Name() string { return "azure-ad" }

func (m *Microsoft) Issuer() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", m.cfg.TenantID)
}

func (m *Microsoft) AuthCodeURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", m.cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", "openid profile email User.Read")
	q.Set("state", state)
	return m.cfg.AuthURL + "?" + q.Encode()
}

func (m *Microsoft) Exchange(ctx context.Context, code, redirectURI string) (*Tokens, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", m.cfg.ClientID)
	data.Set("client_secret", m.cfg.ClientSecret)
	data.Set("redirect_uri", redirectURI)
	data.Set("scope", "openid profile email User.Read")

	req, err := http.NewRequestWithContext(ctx, "POST", m.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	var tokens Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return &tokens, nil
}

type graphProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (m *Microsoft) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", m.cfg.GraphURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUserInfo, resp.StatusCode, string(body))
	}

	var p graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	// Graph reports no `mail` for some directory accounts; the UPN is the
	// sign-in address in that case.
	email := p.Mail
	if email == "" {
		email = p.UserPrincipalName
	}
	return &UserInfo{ID: p.ID, Email: email, Name: p.DisplayName}, nil
}
