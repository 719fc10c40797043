package rest

import (
	"context"
	"net/http"
	"strconv"

	"finboard/internal/core"
)

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []core.Budget
	if err := c.getJSON(ctx, "budgets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveBudget posts the budget; the service upserts on category.
func (c *Client) SaveBudget(ctx context.Context, b core.BudgetInput) (core.Budget, error) {
	var out core.Budget
	err := c.doJSON(ctx, http.MethodPost, "budgets", nil, b, &out)
	return out, err
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) (core.Ack, error) {
	var out core.Ack
	err := c.doJSON(ctx, http.MethodDelete, "budgets/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

func (c *Client) ListBillReminders(ctx context.Context) ([]core.BillReminder, error) {
	var out []core.BillReminder
	if err := c.getJSON(ctx, "bill-reminders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBillReminder(ctx context.Context, r core.BillReminderInput) (core.BillReminder, error) {
	var out core.BillReminder
	err := c.doJSON(ctx, http.MethodPost, "bill-reminders", nil, r, &out)
	return out, err
}

func (c *Client) DeleteBillReminder(ctx context.Context, id int64) (core.Ack, error) {
	var out core.Ack
	err := c.doJSON(ctx, http.MethodDelete, "bill-reminders/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var out []core.Goal
	if err := c.getJSON(ctx, "goals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGoal(ctx context.Context, g core.GoalInput) (core.Goal, error) {
	var out core.Goal
	err := c.doJSON(ctx, http.MethodPost, "goals", nil, g, &out)
	return out, err
}

func (c *Client) UpdateGoal(ctx context.Context, id int64, u core.GoalUpdate) (core.Goal, error) {
	var out core.Goal
	err := c.doJSON(ctx, http.MethodPut, "goals/"+strconv.FormatInt(id, 10), nil, u, &out)
	return out, err
}

func (c *Client) DeleteGoal(ctx context.Context, id int64) (core.Ack, error) {
	var out core.Ack
	err := c.doJSON(ctx, http.MethodDelete, "goals/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

func (c *Client) GoalPlan(ctx context.Context, id int64) (core.GoalPlan, error) {
	var out core.GoalPlan
	err := c.getJSON(ctx, "goals/"+strconv.FormatInt(id, 10)+"/plan", nil, &out)
	return out, err
}
