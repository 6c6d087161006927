package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice@test.com", req.Email)
		assert.Equal(t, "hunter2", req.Password)

		json.NewEncoder(w).Encode(&LoginResponse{
			Token: TokenSet{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				IDToken:      "id-token",
				ExpiresIn:    3600,
			},
			UserAttributes: UserAttributes{
				Email:    "alice@test.com",
				Name:     "Alice",
				Nickname: "alice",
				Sub:      "user-123",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.Login(context.Background(), "alice@test.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "access-token", resp.Token.AccessToken)
	assert.Equal(t, 3600, resp.Token.ExpiresIn)
	assert.Equal(t, "user-123", resp.UserAttributes.Sub)
	assert.Equal(t, "alice", resp.UserAttributes.Nickname)
}

func TestClientLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Incorrect username or password."})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Login(context.Background(), "alice@test.com", "wrong")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCredentials))
}

func TestClientLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&LoginResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Login(context.Background(), "alice@test.com", "hunter2")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAuthBadResponse))
}

func TestClientLoginMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Login(context.Background(), "alice@test.com", "hunter2")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAuthBadResponse))
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient(server.URL, time.Second)
	_, err := client.Login(context.Background(), "alice@test.com", "hunter2")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAuthNetwork))
}

func TestClientDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Login(context.Background(), "alice@test.com", "hunter2")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a failed call must not be retried internally")
}

func TestClientRegisterAndConfirm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/register":
			var req RegisterRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "bob@test.com", req.Email)
			json.NewEncoder(w).Encode(map[string]string{"message": "Confirmation code sent"})
		case "/api/confirm-register":
			var req ConfirmRegisterRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Code != "123456" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": "Invalid code"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"message": "Confirmed"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.Register(context.Background(), &RegisterRequest{
		Email:           "bob@test.com",
		Password:        "hunter2",
		ConfirmPassword: "hunter2",
		Name:            "Bob",
		Nickname:        "bob",
	})
	require.NoError(t, err)

	err = client.ConfirmRegister(context.Background(), "bob@test.com", "000000")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrEmailNotConfirmed))

	err = client.ConfirmRegister(context.Background(), "bob@test.com", "123456")
	require.NoError(t, err)
}

func TestClientCheckEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/check-email", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(&CheckEmailResponse{Exists: req["email"] == "taken@test.com"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	exists, err := client.CheckEmail(context.Background(), "taken@test.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.CheckEmail(context.Background(), "free@test.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
