// Package remote is the device-side client of the remote note store REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

const maxErrorBody = 4 << 10

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=client_options.gen.go -from-struct=Options
type Options struct {
	baseURL string `option:"mandatory" validate:"required,url"`

	httpClient *http.Client
	timeout    time.Duration `default:"10s"`
}

type Client struct {
	Options
	base *url.URL
}

func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate remote client options: %v", err)
	}

	base, err := url.Parse(opts.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %v", err)
	}

	if opts.httpClient == nil {
		opts.httpClient = &http.Client{}
	}

	return &Client{Options: opts, base: base}, nil
}

type syncResponse struct {
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"syncedAt"`
}

type deleteResponse struct {
	Success   bool      `json:"success"`
	DeletedAt time.Time `json:"deletedAt"`
}

type restoreResponse struct {
	Success bool              `json:"success"`
	Note    entity.RemoteNote `json:"note"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Put uploads the device copy of a note and returns the acknowledgement time.
func (c *Client) Put(ctx context.Context, note entity.Note) (time.Time, error) {
	const op = "put note"

	body, err := json.Marshal(note)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode note: %v", err)
	}

	var resp syncResponse
	if err := c.do(ctx, op, http.MethodPost, c.endpoint(nil, "notes", "sync"), body, &resp); err != nil {
		return time.Time{}, err
	}

	return resp.SyncedAt, nil
}

// List returns the caller's live notes as device copies, all marked synced.
func (c *Client) List(ctx context.Context, f entity.NoteFilter) ([]entity.Note, error) {
	q := url.Values{}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Pinned != nil {
		q.Set("pinned", fmt.Sprint(*f.Pinned))
	}
	if f.Favorite != nil {
		q.Set("favorite", fmt.Sprint(*f.Favorite))
	}

	var records []entity.RemoteNote
	if err := c.do(ctx, "list notes", http.MethodGet, c.endpoint(q, "notes"), nil, &records); err != nil {
		return nil, err
	}

	notes := make([]entity.Note, 0, len(records))
	for _, r := range records {
		notes = append(notes, r.ToNote())
	}

	return notes, nil
}

// SoftDelete marks the note for deletion and returns the purge deadline.
func (c *Client) SoftDelete(ctx context.Context, id string) (time.Time, error) {
	var resp deleteResponse
	if err := c.do(ctx, "delete note", http.MethodDelete, c.endpoint(nil, "notes", id), nil, &resp); err != nil {
		return time.Time{}, err
	}

	return resp.DeletedAt, nil
}

func (c *Client) Restore(ctx context.Context, id string) (entity.Note, error) {
	var resp restoreResponse
	if err := c.do(ctx, "restore note", http.MethodPost, c.endpoint(nil, "notes", id, "restore"), nil, &resp); err != nil {
		return entity.Note{}, err
	}

	return resp.Note.ToNote(), nil
}

// Ping reports whether the remote store answers at all.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodHead, c.endpoint(nil, "notes"), nil, nil)
}

func (c *Client) endpoint(q url.Values, segments ...string) string {
	u := c.base.JoinPath(segments...)
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %v", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.TransientNetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(op, resp)
	}

	if out == nil || method == http.MethodHead {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &entity.TransientNetworkError{Op: op, Err: fmt.Errorf("decode response: %v", err)}
	}

	return nil
}

func statusError(op string, resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&e)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		msg := e.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &entity.ValidationError{Msg: msg}
	case http.StatusNotFound:
		return fmt.Errorf("remote %s: %w", op, entity.ErrNoteNotFound)
	default:
		return &entity.TransientNetworkError{
			Op:  op,
			Err: errors.New(resp.Status),
		}
	}
}
