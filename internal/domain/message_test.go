package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage_Valid(t *testing.T) {
	frame := []byte(`{"type":"results_update","data":{"results":[],"total_votes":3}}`)

	msg, err := DecodeMessage(frame)
	require.NoError(t, err)

	assert.Equal(t, MessageResultsUpdate, msg.Type)
	assert.JSONEq(t, `{"results":[],"total_votes":3}`, string(msg.Data))
	assert.JSONEq(t, string(frame), string(msg.Envelope()))
}

func TestDecodeMessage_MissingDataIsNull(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, "null", string(msg.Data))
}

func TestDecodeMessage_Malformed(t *testing.T) {
	frames := []string{
		`not json`,
		``,
		`[]`,
		`"results_update"`,
		`{"data":{}}`,
		`{"type":""}`,
		`{"type":42,"data":{}}`,
		`{"type":null}`,
	}

	for _, f := range frames {
		_, err := DecodeMessage([]byte(f))
		assert.True(t, errors.Is(err, ErrDecode), "frame %q", f)
	}
}

func TestMessage_EnvelopeWithoutRaw(t *testing.T) {
	msg, err := NewMessage(MessageVoteCast, VoteCastData{CandidateID: 2, CandidateName: "Bo"})
	require.NoError(t, err)

	var decoded struct {
		Type string       `json:"type"`
		Data VoteCastData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Envelope(), &decoded))
	assert.Equal(t, MessageVoteCast, decoded.Type)
	assert.Equal(t, "Bo", decoded.Data.CandidateName)
}

func TestRequestError(t *testing.T) {
	err := error(&RequestError{Op: "get results", StatusCode: 503})
	assert.Equal(t, "get results: API error: 503", err.Error())

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 503, reqErr.StatusCode)

	cause := errors.New("connection refused")
	wrapped := &RequestError{Op: "cast vote", Err: cause}
	assert.ErrorIs(t, wrapped, cause)
}
