package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", time.Second, logger.NewNop())
}

func TestClient_GetCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/candidates", r.URL.Path)
		w.Write([]byte(`[{"id":1,"name":"Ada","description":"first","created_at":"2024-01-01"},{"id":2,"name":"Grace"}]`))
	})

	candidates, err := client.GetCandidates(context.Background())

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, domain.Candidate{ID: 1, Name: "Ada", Description: "first", CreatedAt: "2024-01-01"}, candidates[0])
	assert.Equal(t, "Grace", candidates[1].Name)
}

func TestClient_CastVoteSendsClientAndCandidate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/vote", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.VoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.VoteRequest{ClientID: "client-1", CandidateID: 3}, req)

		w.Write([]byte(`{"success":true,"message":"recorded"}`))
	})

	resp, err := client.CastVote(context.Background(), "client-1", 3)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "recorded", resp.Message)
}

func TestClient_CheckVoteStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vote/check", r.URL.Path)
		var req domain.VoteCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "client-1", req.ClientID)
		w.Write([]byte(`{"has_voted":true}`))
	})

	resp, err := client.CheckVoteStatus(context.Background(), "client-1")

	require.NoError(t, err)
	assert.True(t, resp.HasVoted)
}

func TestClient_GetResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/results", r.URL.Path)
		w.Write([]byte(`{"results":[{"candidate_id":1,"candidate_name":"Ada","vote_count":4}],"total_votes":4}`))
	})

	results, err := client.GetResults(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, results.TotalVotes)
	assert.Equal(t, []domain.VoteResult{{CandidateID: 1, CandidateName: "Ada", VoteCount: 4}}, results.Results)
}

func TestClient_GetResultsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":null,"total_votes":0}`))
	})

	results, err := client.GetResults(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, results.Results)
	assert.Empty(t, results.Results)
}

func TestClient_AdminEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/status":
			w.Write([]byte(`{"running":true,"total_candidates":3,"total_votes":9,"port":8000}`))
		case "/api/settings/vote-title":
			w.Write([]byte(`{"title":"Class president"}`))
		case "/api/admin/reset":
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"success":true,"message":"reset"}`))
		case "/api/admin/unlock":
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"success":true,"message":"unlocked"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	status, err := client.GetServerStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ServerStatus{Running: true, TotalCandidates: 3, TotalVotes: 9, Port: 8000}, *status)

	title, err := client.GetVoteTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Class president", title)

	reset, err := client.ResetVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reset", reset.Message)

	unlock, err := client.UnlockClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unlocked", unlock.Message)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetResults(context.Background())

	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, "get results: API error: 500", err.Error())
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	client := NewClient(url, time.Second, logger.NewNop())

	_, err := client.GetCandidates(context.Background())

	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.StatusCode)
	assert.Error(t, reqErr.Err)
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":`))
	})

	_, err := client.GetResults(context.Background())

	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.StatusCode)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetCandidates(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
