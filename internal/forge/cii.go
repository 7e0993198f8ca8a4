package forge

import (
	"context"
	"fmt"
	"net/url"
)

// hasCIIBadge checks the OpenSSF / CII best-practices registry for a badge
// at passing level or better, keyed on the repository URL.
func (c *Client) hasCIIBadge(ctx context.Context, repoURL string) bool {
	var projects []struct {
		BadgeLevel string `json:"badge_level"`
	}
	endpoint := fmt.Sprintf("%s/projects.json?url=%s", c.CIIBase, url.QueryEscape(repoURL))
	found, err := c.get(ctx, endpoint, &projects)
	if err != nil || !found {
		return false
	}
	for _, p := range projects {
		switch p.BadgeLevel {
		case "passing", "silver", "gold":
			return true
		}
	}
	return false
}
