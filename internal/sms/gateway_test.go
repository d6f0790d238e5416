package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioGateway_Send(t *testing.T) {
	var captured struct {
		path string
		to   string
		body string
		auth string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured.path = r.URL.Path
		captured.to = r.PostForm.Get("To")
		captured.body = r.PostForm.Get("Body")
		captured.auth = r.Header.Get("Authorization")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42"}`))
	}))
	defer server.Close()

	gateway := NewTwilioGateway(Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    server.URL,
	})

	result, err := gateway.Send(context.Background(), "+15551234567", "Emma's trip tomorrow")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "SM42", result.MessageID)
	assert.Equal(t, "/Accounts/AC123/Messages.json", captured.path)
	assert.Equal(t, "+15551234567", captured.to)
	assert.Equal(t, "Emma's trip tomorrow", captured.body)
	assert.True(t, strings.HasPrefix(captured.auth, "Basic "))
}

func TestTwilioGateway_SendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid 'To' number"}`))
	}))
	defer server.Close()

	gateway := NewTwilioGateway(Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550001111",
		BaseURL:    server.URL,
	})

	result, err := gateway.Send(context.Background(), "bogus", "text")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Invalid 'To' number", result.Error)
}

func TestTwilioGateway_MockMode(t *testing.T) {
	gateway := NewTwilioGateway(Config{})
	assert.False(t, gateway.Configured())

	result, err := gateway.Send(context.Background(), "+15551234567", "hello")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.MessageID, "mock_"))
}
