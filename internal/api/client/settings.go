package client

import "context"

// Settings is the plugin configuration on the wire. The API key is
// masked in responses.
type Settings struct {
	APIKey   string  `json:"api_key"`
	Quantile float64 `json:"quantile"`
}

// GetSettings returns the stored configuration.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.get(ctx, "/api/v1/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings persists the configuration. An empty or masked key
// keeps the stored one.
func (c *Client) UpdateSettings(ctx context.Context, s *Settings) error {
	return c.put(ctx, "/api/v1/settings", s, nil)
}
