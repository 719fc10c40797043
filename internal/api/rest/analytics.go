package rest

import (
	"context"
	"net/url"
	"strconv"

	"finboard/internal/core"
)

// Spending returns the category -> amount breakdown.
func (c *Client) Spending(ctx context.Context) (map[string]float64, error) {
	out := map[string]float64{}
	if err := c.getJSON(ctx, "analytics/spending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Forecast(ctx context.Context, days int) ([]core.ForecastPoint, error) {
	var out []core.ForecastPoint
	query := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.getJSON(ctx, "analytics/forecast", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Summary(ctx context.Context) (*core.AnalyticsSummary, error) {
	var out *core.AnalyticsSummary
	if err := c.getJSON(ctx, "analytics/summary", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Subscriptions(ctx context.Context) ([]core.Subscription, error) {
	var out []core.Subscription
	if err := c.getJSON(ctx, "analytics/subscriptions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IncomePatterns(ctx context.Context) ([]core.IncomePattern, error) {
	var out []core.IncomePattern
	if err := c.getJSON(ctx, "analytics/income-patterns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SavingsProjection(ctx context.Context, months int) ([]core.SavingsPoint, error) {
	var out []core.SavingsPoint
	query := url.Values{"months": {strconv.Itoa(months)}}
	if err := c.getJSON(ctx, "analytics/savings-projection", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Emergencies accepts both the single-object and the list payload.
func (c *Client) Emergencies(ctx context.Context) (core.Emergency, error) {
	var out core.Emergency
	err := c.getJSON(ctx, "analytics/emergencies", nil, &out)
	return out, err
}

func (c *Client) Personality(ctx context.Context) (*core.SpendingPersonality, error) {
	var out *core.SpendingPersonality
	if err := c.getJSON(ctx, "analytics/personality", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
