// Go client for a tdblite server started with `tdblite serve`.
//
// Usage:
//
//	c, err := client.NewClient("ws://localhost:7085", client.ClientOptions{Username: "admin", Password: "secret"})
//	res, err := c.Exec("SELECT users WHERE age = 30", false)
//	records, err := client.DecodeData[[]types.Record](res)
//
// DROP and DELETE only run when Exec is called with confirm set.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"

	ws "github.com/gorilla/websocket"

	"github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/pkg"
)

type ClientOptions struct {
	Username string
	Password string
}

// Client is safe for concurrent use; requests are sent one at a time.
type Client struct {
	locker sync.Mutex
	conn   *ws.Conn
	req_id int

	// The formatted connection url of the tdblite server
	Url *url.URL
}

func NewClient(urlStr string, options ClientOptions) (*Client, error) {
	Url, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	if Url.Scheme != "ws" && Url.Scheme != "wss" {
		return nil, fmt.Errorf("Expected a ws:// or wss:// url, got %s", urlStr)
	}

	if options.Username != "" || options.Password != "" {
		q := Url.Query()
		q.Set("username", options.Username)
		q.Set("password", options.Password)
		Url.RawQuery = q.Encode()
	}

	return &Client{Url: Url}, nil
}

func (c *Client) Connect() error {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.connect()
}

func (c *Client) connect() error {
	if c.conn != nil {
		return nil
	}
	conn, res, err := ws.DefaultDialer.Dial(c.Url.String(), nil)
	if err != nil {
		if res != nil {
			return handshakeError(res.Body, err)
		}
		return err
	}

	pkg.InfoLog("Connected to tdblite server", c.Url.Host)
	c.conn = conn
	return nil
}

// the server explains a refused handshake in a JSON Response body
func handshakeError(body io.Reader, err error) error {
	buf, _ := io.ReadAll(body)
	var res conn.Response
	if json.Unmarshal(buf, &res) == nil && res.Message != "" {
		return conn.ResponseError(res)
	}
	return err
}

func (c *Client) Disconnect() error {
	c.locker.Lock()
	defer c.locker.Unlock()
	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteMessage(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, "Disconnect"))
	if err != nil {
		pkg.ErrorLog(err)
	}
	close_err := c.conn.Close()
	c.conn = nil
	if err == nil {
		err = close_err
	}
	if err != nil {
		return err
	}

	pkg.InfoLog("Disconnected from tdblite server")
	return nil
}

// Exec sends one command line and waits for its response. Connects first if
// needed. The server's error statuses are returned in the Response, not as err.
func (c *Client) Exec(command string, confirm bool) (conn.Response, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.connect(); err != nil {
		return conn.Response{}, err
	}

	c.req_id++
	req := conn.WsRequest{Command: command, ReqId: c.req_id, Confirm: confirm}
	if err := c.conn.WriteJSON(req); err != nil {
		return conn.Response{}, err
	}

	res, err := c.readResponse()
	if err != nil {
		return res, err
	}
	if res.ReqId != req.ReqId {
		return res, fmt.Errorf("Response for request %d arrived while waiting for %d", res.ReqId, req.ReqId)
	}
	return res, nil
}

// numbers in Data stay json.Number so ints past 2^53 keep every digit
func (c *Client) readResponse() (conn.Response, error) {
	var res conn.Response
	_, r, err := c.conn.NextReader()
	if err != nil {
		return res, err
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	err = dec.Decode(&res)
	if err == io.EOF {
		// same as ReadJSON: an empty message is an unexpected end
		err = io.ErrUnexpectedEOF
	}
	return res, err
}

// DecodeData converts the loosely decoded res.Data into T. Numbers arrive
// as json.Number and are decoded the same way, so ints keep full precision.
func DecodeData[T any](res conn.Response) (T, error) {
	var v T
	buf, err := json.Marshal(res.Data)
	if err != nil {
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	err = dec.Decode(&v)
	return v, err
}
