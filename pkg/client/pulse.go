package client

import (
	"context"
	"net/url"
	"strconv"
)

type askRequest struct {
	UserID   int64  `json:"userId,omitempty"`
	Question string `json:"question"`
}

type checkoutRequest struct {
	UserID   int64  `json:"userId,omitempty"`
	PlanType string `json:"planType"`
}

// Ask submits a question. A zero userID lets the server take the user from
// the bearer token.
func (c *Client) Ask(ctx context.Context, userID int64, question string) (*Answer, error) {
	var resp Answer
	if err := c.doRequest(ctx, "POST", "/api/ai", nil, askRequest{UserID: userID, Question: question}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Checkout opens a payment for planType
func (c *Client) Checkout(ctx context.Context, userID int64, planType string) (*Checkout, error) {
	var resp Checkout
	if err := c.doRequest(ctx, "POST", "/api/payment", nil, checkoutRequest{UserID: userID, PlanType: planType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the account summary
func (c *Client) Profile(ctx context.Context, userID int64) (*Profile, error) {
	var query url.Values
	if userID > 0 {
		query = url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	}

	var resp Profile
	if err := c.doRequest(ctx, "GET", "/api/profile", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Plans lists the plan catalogue
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var resp struct {
		Plans []Plan `json:"plans"`
	}
	if err := c.doRequest(ctx, "GET", "/api/plans", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}
