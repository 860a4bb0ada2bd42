package whatsappclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody sendTextRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.test123"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "token-abc", "1234567890", nil)
	id, err := client.SendText(context.Background(), "5215550001111", "hola")
	require.NoError(t, err)

	assert.Equal(t, "wamid.test123", id)
	assert.Equal(t, "/1234567890/messages", gotPath)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "whatsapp", gotBody.MessagingProduct)
	assert.Equal(t, "5215550001111", gotBody.To)
	assert.Equal(t, "text", gotBody.Type)
	assert.Equal(t, "hola", gotBody.Text.Body)
}

func TestSendTextProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "token-abc", "1234567890", nil)
	_, err := client.SendText(context.Background(), "5215550001111", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestSendTextValidation(t *testing.T) {
	client := New("", "", "123", nil)
	_, err := client.SendText(context.Background(), "555", "hola")
	assert.Error(t, err, "missing token must fail before any network call")

	client = New("", "token", "123", nil)
	_, err = client.SendText(context.Background(), "", "hola")
	assert.Error(t, err)
	_, err = client.SendText(context.Background(), "555", "  ")
	assert.Error(t, err)
}
