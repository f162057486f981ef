package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/123/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AccessToken: "token", PhoneNumberID: "123", BaseURL: srv.URL + "/", APIVersion: "v20.0"})
	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224600000000", Body: "Farm summary"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "224600000000", got["to"])
	assert.Equal(t, "text", got["type"])
}

func TestSendTextMessageAPIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid token","code":190}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{AccessToken: "bad", PhoneNumberID: "123", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "hi"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, 190, apiErr.Code)
	assert.Contains(t, err.Error(), "invalid token")
	assert.EqualValues(t, 1, calls.Load(), "4xx is not retried")

	_, err = c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "  "})
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendTextMessageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"try later"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{PhoneNumberID: "123", BaseURL: srv.URL, APIVersion: "v20.0", RetryWait: time.Millisecond})
	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.2", resp.Messages[0].ID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSplit(t *testing.T) {
	assert.Nil(t, Split("", 10))
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Equal(t, []string{"line one\n", "line two\nend"}, Split("line one\nline two\nend", 12))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, Split("abcdefghij", 4))

	long := strings.Repeat("- doe Rex#1 on 2024-03-12\n", 300)
	for _, part := range Split(long, MaxTextLength) {
		assert.LessOrEqual(t, len(part), MaxTextLength)
	}
	assert.Equal(t, long, strings.Join(Split(long, MaxTextLength), ""))
}
