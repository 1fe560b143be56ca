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

	"live-voting/internal/domain"
	"live-voting/pkg/logger"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the voting server's REST API. Every failure is returned
// as a *domain.RequestError; nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) GetCandidates(ctx context.Context) ([]domain.Candidate, error) {
	var candidates []domain.Candidate
	if err := c.do(ctx, "get candidates", http.MethodGet, "/api/candidates", nil, &candidates); err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return candidates, nil
}

func (c *Client) CastVote(ctx context.Context, clientID string, candidateID int) (*domain.VoteResponse, error) {
	req := domain.VoteRequest{ClientID: clientID, CandidateID: candidateID}

	var resp domain.VoteResponse
	if err := c.do(ctx, "cast vote", http.MethodPost, "/api/vote", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckVoteStatus(ctx context.Context, clientID string) (*domain.VoteCheckResponse, error) {
	req := domain.VoteCheckRequest{ClientID: clientID}

	var resp domain.VoteCheckResponse
	if err := c.do(ctx, "check vote status", http.MethodPost, "/api/vote/check", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetResults(ctx context.Context) (*domain.ResultSet, error) {
	var results domain.ResultSet
	if err := c.do(ctx, "get results", http.MethodGet, "/api/results", nil, &results); err != nil {
		return nil, err
	}
	if results.Results == nil {
		results.Results = []domain.VoteResult{}
	}
	return &results, nil
}

func (c *Client) GetServerStatus(ctx context.Context) (*domain.ServerStatus, error) {
	var status domain.ServerStatus
	if err := c.do(ctx, "get server status", http.MethodGet, "/api/admin/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetVoteTitle(ctx context.Context) (string, error) {
	var resp struct {
		Title string `json:"title"`
	}
	if err := c.do(ctx, "get vote title", http.MethodGet, "/api/settings/vote-title", nil, &resp); err != nil {
		return "", err
	}
	return resp.Title, nil
}

func (c *Client) ResetVotes(ctx context.Context) (*domain.AdminResponse, error) {
	var resp domain.AdminResponse
	if err := c.do(ctx, "reset votes", http.MethodPost, "/api/admin/reset", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UnlockClients(ctx context.Context) (*domain.AdminResponse, error) {
	var resp domain.AdminResponse
	if err := c.do(ctx, "unlock clients", http.MethodPost, "/api/admin/unlock", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &domain.RequestError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("API request failed", "op", op, "path", path, "error", err)
		return &domain.RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		c.log.Error("API request failed", "op", op, "path", path, "status", resp.StatusCode)
		return &domain.RequestError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RequestError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
