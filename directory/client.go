// Package directory talks to the external member directory API, used to
// refresh hacker profiles (display name, avatar).
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/gommon/log"
)

// Member is a profile record in the member directory.
type Member struct {
	Id        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarUrl string `json:"image_path"`
}

type Client struct {
	baseUrl string
	token   string
	http    *http.Client
}

func NewClient(baseUrl string, token string) *Client {
	return &Client{
		baseUrl: baseUrl,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Member fetches a member profile by id.
func (c *Client) Member(ctx context.Context, id int64) (*Member, error) {
	url := fmt.Sprintf("%s/api/v1/profiles/%d", c.baseUrl, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("directory returned %s for member %d", resp.Status, id)
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}

	var member Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return &member, nil
}
