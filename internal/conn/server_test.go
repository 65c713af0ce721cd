package conn_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/tobsdb/tdblite/internal/auth"
	. "github.com/tobsdb/tdblite/internal/conn"
	"gotest.tools/assert"
)

func newTestServer(t *testing.T, user *auth.User) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(newTestSession(t, 0), user).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NilError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg string) Response {
	t.Helper()
	assert.NilError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
	var res Response
	assert.NilError(t, ws.ReadJSON(&res))
	return res
}

func TestParseWsRequest(t *testing.T) {
	req, err := ParseWsRequest([]byte("  LIST \n"))
	assert.NilError(t, err)
	assert.DeepEqual(t, req, WsRequest{Command: "LIST"})

	req, err = ParseWsRequest([]byte(`{"command": "DROP a", "__tdb_client_req_id__": 4, "confirm": true}`))
	assert.NilError(t, err)
	assert.DeepEqual(t, req, WsRequest{Command: "DROP a", ReqId: 4, Confirm: true})

	_, err = ParseWsRequest([]byte(`{"command": `))
	assert.Assert(t, err != nil)
}

func TestServerCommands(t *testing.T) {
	srv := newTestServer(t, nil)
	ws := dial(t, srv, "")

	res := send(t, ws, "CREATE users (name:str, age:int)")
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)

	res = send(t, ws, `{"command": "INSERT users VALUES ('Ann', 30)", "__tdb_client_req_id__": 7}`)
	assert.Equal(t, res.Status, http.StatusCreated, res.Message)
	assert.Equal(t, res.ReqId, 7)

	res = send(t, ws, "SELECT users WHERE name = 'Ann'")
	assert.Equal(t, res.Status, http.StatusOK, res.Message)
	records := res.Data.([]any)
	assert.Equal(t, len(records), 1)
	assert.Equal(t, records[0].(map[string]any)["age"], float64(30))

	t.Run("destructive needs confirm", func(t *testing.T) {
		res := send(t, ws, "DELETE users WHERE ID = 1")
		assert.Equal(t, res.Status, StatusCancelled)

		res = send(t, ws, `{"command": "DELETE users WHERE ID = 1", "confirm": true}`)
		assert.Equal(t, res.Status, http.StatusOK, res.Message)
		assert.Equal(t, res.Message, "Deleted 1 records from users")
	})

	t.Run("errors keep the request id", func(t *testing.T) {
		res := send(t, ws, `{"command": "SELEC users", "__tdb_client_req_id__": 9}`)
		assert.Equal(t, res.Status, http.StatusBadRequest)
		assert.Equal(t, res.ReqId, 9)

		res = send(t, ws, `{"command": `)
		assert.Equal(t, res.Status, http.StatusBadRequest)
	})
}

func TestServerAuth(t *testing.T) {
	user, err := auth.NewUser("admin", "pass", auth.UserRoleReadOnly)
	assert.NilError(t, err)
	srv := newTestServer(t, user)

	t.Run("rejects bad credentials", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?auth=admin:nope"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		assert.Assert(t, err != nil)
		assert.Equal(t, resp.StatusCode, http.StatusUnauthorized)

		body, _ := io.ReadAll(resp.Body)
		var res Response
		assert.NilError(t, json.Unmarshal(body, &res))
		assert.Equal(t, res.Message, "connection unauthorized")
	})

	t.Run("read-only user", func(t *testing.T) {
		ws := dial(t, srv, "?username=admin&password=pass")

		res := send(t, ws, "LIST")
		assert.Equal(t, res.Status, http.StatusOK, res.Message)

		res = send(t, ws, "CREATE users (name:str)")
		assert.Equal(t, res.Status, http.StatusForbidden)
		assert.Equal(t, res.Message, "User admin cannot run create")
	})
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	assert.NilError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, string(body), "ok")
}
