package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayctl/internal/session"
	"relayctl/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sess := session.New()
	return New(srv.URL, 5*time.Second, sess), sess
}

func TestLoginReturnsToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["username"])

		json.NewEncoder(w).Encode(map[string]string{"token": "tok-abc"})
	})

	token, err := client.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLoginValidatesLocally(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Login(context.Background(), "", "")
	assert.True(t, IsLocalValidation(err))
	assert.False(t, called, "empty credentials must not reach the network")
}

func TestRequestAttachesAuthAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "devices": []types.Device{}})
	})

	require.NoError(t, sess.SetToken("tok-1"))
	_, err := client.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.NotEmpty(t, gotReqID)
}

func TestNoAuthHeaderWhenLoggedOut(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "devices": []types.Device{}})
	})

	_, err := client.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestErrorClassification(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := client.ListDevices(context.Background())
		assert.True(t, IsUnauthorized(err))
		assert.False(t, IsServerRejected(err))
	})

	t.Run("server rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := client.ListDevices(context.Background())
		assert.True(t, IsServerRejected(err))

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	})

	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close() // connection refused from here on
		client := New(srv.URL, time.Second, session.New())
		_, err := client.ListDevices(context.Background())
		assert.True(t, IsTransport(err))
	})
}

func TestQueryMessages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms/query", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+1555", body["phone"])
		assert.Equal(t, float64(50), body["limit"])
		assert.Equal(t, float64(1), body["slot"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"data": []types.Message{
				{Phone: "+1555", Slot: 1, Sender: "+1666", Content: "hello", Timestamp: 1700000000},
			},
		})
	})

	slot := 1
	msgs, err := client.QueryMessages(context.Background(), MessageQuery{Phone: "+1555", Slot: &slot, Limit: 50})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "+1666", msgs[0].Sender)
}

func TestQueryMessagesOmitsSlotWhenNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasSlot := body["slot"]
		assert.False(t, hasSlot, "nil slot filter must not be sent")
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "data": []types.Message{}})
	})

	_, err := client.QueryMessages(context.Background(), MessageQuery{Phone: "+1555", Limit: 50})
	require.NoError(t, err)
}

func TestQueryMessagesRequiresLimit(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("validation failure must not reach the network")
	})
	_, err := client.QueryMessages(context.Background(), MessageQuery{Phone: "+1555"})
	assert.True(t, IsLocalValidation(err))
}

func TestSendAndDeleteAcceptEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // 2xx, empty body
	})

	cmd := types.SendCommand{Phone: "+1555", Slot: 0, TargetPhone: "+1666", Content: "hi"}
	assert.NoError(t, client.SendMessage(context.Background(), cmd))
	assert.NoError(t, client.DeleteMessages(context.Background(), "+1555", 1))
}

func TestDeleteMessagesValidatesSlot(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid slot must not reach the network")
	})
	err := client.DeleteMessages(context.Background(), "+1555", 2)
	assert.True(t, IsLocalValidation(err))
}

func TestAppVersionRoundTrip(t *testing.T) {
	stored := types.VersionInfo{VersionCode: 7, VersionName: "1.9", DownloadURL: "https://fleet.example/app.apk"}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app/version", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(stored)
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
		}
	})

	v, err := client.AppVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v.VersionCode)

	v.VersionCode = 8
	require.NoError(t, client.SetAppVersion(context.Background(), v))
	assert.Equal(t, 8, stored.VersionCode)

	err = client.SetAppVersion(context.Background(), types.VersionInfo{})
	assert.True(t, IsLocalValidation(err))
}
