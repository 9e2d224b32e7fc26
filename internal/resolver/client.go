package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arenaworks/prizepay/internal/resolver/domain"
	"go.uber.org/zap"
)

// Config points the resolvers at the member/resource API.
type Config struct {
	BaseURL       string
	Token         string
	CopilotRoleID string
	Timeout       time.Duration
}

// Client resolves member ids and copilot assignments over the platform API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log.Named("resolver"),
	}
}

type member struct {
	UserID int64  `json:"userId"`
	Handle string `json:"handle"`
}

// ResolveUserID looks up the numeric member id for a handle.
func (c *Client) ResolveUserID(ctx context.Context, handle string) (int64, error) {
	endpoint := fmt.Sprintf("%s/members?handle=%s", c.cfg.BaseURL, url.QueryEscape(handle))

	var members []member
	if err := c.getJSON(ctx, endpoint, &members); err != nil {
		return 0, fmt.Errorf("resolve user %q: %w", handle, err)
	}
	if len(members) == 0 || members[0].UserID <= 0 {
		return 0, fmt.Errorf("resolve user %q: %w", handle, domain.ErrNotFound)
	}
	return members[0].UserID, nil
}

type resource struct {
	MemberID string `json:"memberId"`
	RoleID   string `json:"roleId"`
}

// ResolveCopilotID looks up the copilot resource on a challenge. The resource
// API reports member ids as strings.
func (c *Client) ResolveCopilotID(ctx context.Context, challengeID string) (int64, error) {
	endpoint := fmt.Sprintf("%s/resources?challengeId=%s&roleId=%s",
		c.cfg.BaseURL,
		url.QueryEscape(challengeID),
		url.QueryEscape(c.cfg.CopilotRoleID),
	)

	var resources []resource
	if err := c.getJSON(ctx, endpoint, &resources); err != nil {
		return 0, fmt.Errorf("resolve copilot for challenge %s: %w", challengeID, err)
	}
	if len(resources) == 0 {
		return 0, fmt.Errorf("resolve copilot for challenge %s: %w", challengeID, domain.ErrNotFound)
	}
	memberID, err := strconv.ParseInt(resources[0].MemberID, 10, 64)
	if err != nil || memberID <= 0 {
		return 0, fmt.Errorf("resolve copilot for challenge %s: bad member id %q", challengeID, resources[0].MemberID)
	}
	return memberID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
