package program

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWOPRLogonSequence(t *testing.T) {
	w := NewWOPR(WOPRConfig{URL: "http://unused"})

	boot := w.Step("", nil)
	assert.Equal(t, "LOGON:", boot.Prompt)
	assert.Zero(t, boot.ExitStatus)

	ok := w.Step("Joshua", boot.State)
	assert.Equal(t, "$ ", ok.Prompt)
	assert.Contains(t, ok.Output, "GREETINGS, PROFESSOR FALKEN.")
	assert.Nil(t, ok.Pending)

	denied := w.Step("falken", boot.State)
	assert.Equal(t, 1, denied.ExitStatus)
	assert.Equal(t, "--CONNECTION TERMINATED--", denied.Output[1])
}

func TestWOPRReadySendsToServer(t *testing.T) {
	var got gameRequest
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k3y", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(rw).Encode(gameResponse{SessionID: "s-1", Message: "SHALL WE PLAY A GAME?\nLOVELY"})
	}))
	defer srv.Close()

	w := NewWOPR(WOPRConfig{URL: srv.URL, APIKey: "k3y"})
	res := w.Step("hello", State{phaseKey: phaseReady, sessionKey: "s-0"})

	assert.Empty(t, res.Output)
	assert.Equal(t, "$ ", res.Prompt)
	require.NotNil(t, res.Pending)

	reply := res.Pending(context.Background())
	assert.Equal(t, []string{"SHALL WE PLAY A GAME?", "LOVELY"}, reply.Output)
	assert.Equal(t, "s-1", reply.State[sessionKey])
	assert.Equal(t, gameRequest{Message: "hello", SessionID: "s-0"}, got)
}

func TestWOPRServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(rw).Encode(gameResponse{Detail: "ERROR: LINK DISCONNECTED BY REMOTE"})
	}))
	defer srv.Close()

	w := NewWOPR(WOPRConfig{URL: srv.URL})
	reply := w.Step("x", State{phaseKey: phaseReady}).Pending(context.Background())

	require.Len(t, reply.Output, 1)
	assert.Contains(t, reply.Output[0], Disconnected)
	assert.Nil(t, reply.State)
}

func TestWOPRUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	w := NewWOPR(WOPRConfig{URL: url})
	w.client.Transport = http.DefaultTransport

	reply := w.Step("x", State{phaseKey: phaseReady}).Pending(context.Background())
	assert.Equal(t, []string{Disconnected}, reply.Output)
}

func TestSet(t *testing.T) {
	s := NewSet(NewWOPR(WOPRConfig{}))
	_, ok := s["wopr"]
	assert.True(t, ok)
}
