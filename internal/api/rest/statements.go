package rest

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"finboard/internal/core"
)

func (c *Client) ListStatements(ctx context.Context) ([]core.Statement, error) {
	var out []core.Statement
	if err := c.getJSON(ctx, "statements", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStatement removes the statement and every transaction imported with it.
func (c *Client) DeleteStatement(ctx context.Context, id int64) (core.Ack, error) {
	var out core.Ack
	err := c.doJSON(ctx, http.MethodDelete, "statements/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// UploadStatement streams r as the multipart "file" field. It runs under
// the upload timeout rather than the regular request timeout.
func (c *Client) UploadStatement(ctx context.Context, filename string, r io.Reader) (core.UploadResult, error) {
	var out core.UploadResult

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload", nil), pr)
	if err != nil {
		pr.CloseWithError(err)
		return out, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	err = c.send(req, "upload", &out)
	pr.Close()
	return out, err
}
