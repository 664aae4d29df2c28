package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHubUser is a GitHub account as seen by the login callback.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

// ContactEmail is the address the board account is keyed by. Accounts
// without a visible or verified email get the GitHub noreply address, which
// is unique per GitHub id.
func (u *GitHubUser) ContactEmail() string {
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("%d+%s@users.noreply.github.com", u.ID, u.Login)
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider runs the OAuth authorization code flow against GitHub and
// reads the signed-in user's profile. It exists only when a client id and
// secret are configured.
type GitHubProvider struct {
	config  *oauth2.Config
	apiBase string
}

func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPI,
	}
}

// AuthURL is where the browser is sent to approve the login. state comes
// back on the callback and must match the oauth_state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's profile. When the
// profile hides the email, the primary verified address from /user/emails
// is used instead.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	api := resty.NewWithClient(p.config.Client(ctx, tok)).
		SetBaseURL(p.apiBase).
		SetHeader("Accept", "application/vnd.github+json")

	var u GitHubUser
	if err := getJSON(ctx, api, "/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("auth: GitHub returned a user without an id")
	}

	if u.Email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, api, "/user/emails", &emails); err != nil {
			// the profile is still usable with the noreply address
			return &u, nil
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				u.Email = strings.TrimSpace(e.Email)
				break
			}
		}
	}
	return &u, nil
}

func getJSON(ctx context.Context, api *resty.Client, path string, out any) error {
	resp, err := api.R().SetContext(ctx).SetResult(out).Get(path)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("auth: GitHub %s returned status %d", path, resp.StatusCode())
	}
	return nil
}
