// Package client provides an HTTP client for the comment-service REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/google/uuid"
)

const apiPrefix = "/api/v1/comments"

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Details
	}
	return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
}

// Client is an HTTP client for the comment-service API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// New creates a new API client. accessToken may be empty for read-only use.
func New(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ListComments returns the comment tree of a post.
func (c *Client) ListComments(ctx context.Context, postID uuid.UUID, newestFirst bool) ([]*tree.Node, error) {
	sort := "newest"
	if !newestFirst {
		sort = "oldest"
	}

	var nodes []*tree.Node
	if err := c.get(ctx, fmt.Sprintf("%s/%s?sort=%s", apiPrefix, postID, sort), &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateComment adds a top-level comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID uuid.UUID, text string) (*tree.Node, error) {
	body := dto.CreateCommentRequest{PostID: postID, Text: text}
	var node tree.Node
	if err := c.post(ctx, apiPrefix, body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Reply adds a reply to an existing comment.
func (c *Client) Reply(ctx context.Context, parentID uuid.UUID, text string) (*tree.Node, error) {
	body := dto.ReplyCommentRequest{Text: text}
	var node tree.Node
	if err := c.post(ctx, fmt.Sprintf("%s/reply/%s", apiPrefix, parentID), body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Vote likes or dislikes a comment and returns the updated counts.
func (c *Client) Vote(ctx context.Context, commentID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	var counts model.VoteCounts
	if err := c.post(ctx, fmt.Sprintf("%s/%s/%s", apiPrefix, commentID, polarity), nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// DeleteComment removes a comment with its replies and returns how many
// records were removed.
func (c *Client) DeleteComment(ctx context.Context, commentID uuid.UUID) (int64, error) {
	var resp dto.DeleteCommentResponse
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", apiPrefix, commentID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// RecentComments returns the latest comments written by a user.
func (c *Client) RecentComments(ctx context.Context, userID uuid.UUID) ([]*tree.RecentNode, error) {
	var nodes []*tree.RecentNode
	if err := c.get(ctx, fmt.Sprintf("%s/recent/%s", apiPrefix, userID), &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Recount asks the server to recompute a post's comment counter.
func (c *Client) Recount(ctx context.Context, postID uuid.UUID) (int64, error) {
	var resp dto.RecountResponse
	if err := c.post(ctx, fmt.Sprintf("%s/recount/%s", apiPrefix, postID), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Comments, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request with an optional JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp dto.BasicResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			apiErr.Details = errResp.Details
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
