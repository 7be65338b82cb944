// Package api is the authenticated REST client for the winspire backend:
// the one-shot baseline fetch plus the write endpoints the dispatcher uses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"winspire.app/internal/protocol"
)

// Error is a non-2xx response. Code is one of the protocol.Err* constants;
// Message carries the backend's optional message field.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.Status)
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

// Session is the credential record issued by login/register.
type Session struct {
	Token string          `json:"token"`
	User  protocol.Author `json:"user"`
}

func New(baseURL, token string) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient overrides the underlying client (tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Login exchanges credentials for a bearer token and identity record.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &s)
	return s, err
}

// Register creates an account and returns a session, like Login.
func (c *Client) Register(ctx context.Context, fullName, username, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"fullName": fullName,
		"username": username,
		"email":    email,
		"password": password,
	}, &s)
	return s, err
}

// Posts fetches the full post collection for one platform (the baseline).
func (c *Client) Posts(ctx context.Context, platform string) ([]protocol.Post, error) {
	var posts []protocol.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+platform, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost submits a new post; the server assigns the real id.
func (c *Client) CreatePost(ctx context.Context, platform, content, image string) (protocol.Post, error) {
	var p protocol.Post
	err := c.do(ctx, http.MethodPost, "/api/posts", map[string]string{
		"content":  content,
		"platform": platform,
		"image":    image,
	}, &p)
	return p, err
}

// LikePost toggles the caller's like. The authoritative liker set arrives
// via the postLiked broadcast, not this response.
func (c *Client) LikePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/like", nil, nil)
}

// SharePost bumps the share counter and returns the authoritative count.
func (c *Client) SharePost(ctx context.Context, postID string) (int, error) {
	var out struct {
		Shares int `json:"shares"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/share", nil, &out); err != nil {
		return 0, err
	}
	return out.Shares, nil
}

// CommentPost submits a comment and returns the created record.
func (c *Client) CommentPost(ctx context.Context, postID, text string) (protocol.Comment, error) {
	var cm protocol.Comment
	err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/comment", map[string]string{
		"text": text,
	}, &cm)
	return cm, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", protocol.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if code := protocol.CodeForStatus(resp.StatusCode); code != "" {
		apiErr := &Error{Status: resp.StatusCode, Code: code}
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
