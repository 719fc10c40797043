package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
)

func (c *Client) ListTransactions(ctx context.Context, statementIDs []int64) ([]*core.Transaction, error) {
	var query url.Values
	if len(statementIDs) > 0 {
		query = url.Values{"statement_ids": {joinIDs(statementIDs)}}
	}
	var out []*core.Transaction
	if err := c.getJSON(ctx, "transactions", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t core.NewTransaction) (core.Transaction, error) {
	var out core.Transaction
	err := c.doJSON(ctx, http.MethodPost, "transactions", nil, t, &out)
	return out, err
}

func (c *Client) UpdateTransaction(ctx context.Context, e core.TransactionEdit) (core.Transaction, error) {
	var out core.Transaction
	err := c.doJSON(ctx, http.MethodPut, "transactions/"+strconv.FormatInt(e.ID, 10), nil, e, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) (core.Ack, error) {
	var out core.Ack
	err := c.doJSON(ctx, http.MethodDelete, "transactions/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// BulkDeleteTransactions posts the bare id array.
func (c *Client) BulkDeleteTransactions(ctx context.Context, ids []int64) (core.Ack, error) {
	var out core.Ack
	if ids == nil {
		ids = []int64{}
	}
	err := c.doJSON(ctx, http.MethodPost, "transactions/bulk-delete", nil, ids, &out)
	return out, err
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
