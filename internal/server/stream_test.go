package server_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/restaked/internal/core/events"
	jtx "github.com/LeJamon/restaked/internal/testing"
	"github.com/LeJamon/restaked/internal/testing/builders"
)

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/v1/events/stream" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readRecord(t *testing.T, conn *websocket.Conn) events.Record {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var rec events.Record
	require.NoError(t, conn.ReadJSON(&rec))
	return rec
}

func TestEventStreamBacklogThenLive(t *testing.T) {
	f := newFixture(t)
	before := f.journal.NextSeq()

	status, _ := f.submit(t, f.alice, builders.Stake(f.alice.PublicKey, f.p.Main, f.wsol, jtx.SOL(4)).Build())
	require.Equal(t, http.StatusOK, status)

	conn := f.dial(t, "?from="+itoa(before))

	first := readRecord(t, conn)
	assert.Equal(t, before, first.Seq)
	assert.Equal(t, "StakeEvent", first.Name)

	status, _ = f.submit(t, f.alice, builders.Stake(f.alice.PublicKey, f.p.Main, f.wsol, jtx.SOL(6)).Build())
	require.Equal(t, http.StatusOK, status)

	second := readRecord(t, conn)
	assert.Equal(t, before+1, second.Seq)
	assert.Equal(t, "Stake", second.TxType)
}

func TestEventStreamSkipsOlderRecords(t *testing.T) {
	f := newFixture(t)

	status, _ := f.submit(t, f.alice, builders.Stake(f.alice.PublicKey, f.p.Main, f.wsol, jtx.SOL(4)).Build())
	require.Equal(t, http.StatusOK, status)
	next := f.journal.NextSeq()

	conn := f.dial(t, "?from="+itoa(next))

	status, _ = f.submit(t, f.alice, builders.Stake(f.alice.PublicKey, f.p.Main, f.wsol, jtx.SOL(1)).Build())
	require.Equal(t, http.StatusOK, status)

	rec := readRecord(t, conn)
	assert.Equal(t, next, rec.Seq)
}

func TestEventStreamBadRequest(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/v1/events/stream?from=x", nil))
}
