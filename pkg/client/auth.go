package client

import "context"

type authRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code,omitempty"`
}

// RequestCode asks the server to issue a one-time code for phone
func (c *Client) RequestCode(ctx context.Context, phone string) (*CodeSent, error) {
	var resp CodeSent
	if err := c.doRequest(ctx, "POST", "/api/auth", nil, authRequest{Phone: phone}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify checks a code and stores the returned token for later requests
func (c *Client) Verify(ctx context.Context, phone, code string) (*Verification, error) {
	var resp Verification
	if err := c.doRequest(ctx, "POST", "/api/auth", nil, authRequest{Phone: phone, Code: code}, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		c.SetToken(resp.Token)
	}
	return &resp, nil
}
