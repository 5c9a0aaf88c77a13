package shelly

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(ts *httptest.Server) *Client {
	return NewClient(strings.TrimPrefix(ts.URL, "http://"), 2*time.Second, zap.NewNop())
}

func TestGetState(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ison":true,"has_timer":false,"source":"http"}`))
	}))
	defer ts.Close()

	on, err := testClient(ts).GetState("relay/0")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, "/relay/0", gotPath)
}

func TestSetState(t *testing.T) {
	var gotPath, gotTurn string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTurn = r.URL.Query().Get("turn")
		w.Write([]byte(`{"ison":false}`))
	}))
	defer ts.Close()

	on, err := testClient(ts).SetState("light/0", false)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, "/light/0", gotPath)
	assert.Equal(t, "off", gotTurn)
}

func TestSetStateOn(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "on", r.URL.Query().Get("turn"))
		w.Write([]byte(`{"ison":true}`))
	}))
	defer ts.Close()

	on, err := testClient(ts).SetState("relay/0", true)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestGetStateErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := testClient(ts).GetState("relay/0")
	assert.Error(t, err)
}

func TestGetStateBadBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	_, err := testClient(ts).GetState("relay/0")
	assert.Error(t, err)
}
