package conn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tobsdb/tdblite/internal/auth"
	"github.com/tobsdb/tdblite/internal/parser"
	"github.com/tobsdb/tdblite/pkg"
)

// WsRequest is the JSON form of a command. Clients may also send the bare
// command text, which is never confirmed.
type WsRequest struct {
	Command string `json:"command"`
	ReqId   int    `json:"__tdb_client_req_id__"` // used in tdb clients
	Confirm bool   `json:"confirm"`
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func ParseWsRequest(message []byte) (WsRequest, error) {
	trimmed := bytes.TrimSpace(message)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return WsRequest{Command: string(trimmed)}, nil
	}
	var req WsRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, err
	}
	return req, nil
}

type Server struct {
	Session *Session
	// nil disables auth
	User *auth.User
}

func NewServer(session *Session, user *auth.User) *Server {
	return &Server{Session: session, User: user}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.HandleConnection)
	return mux
}

// Listen serves on port until ctx is done, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	pkg.InfoLog("tdblite listening on port", port)
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	pkg.DebugLog("Shutting down...")
	shutdown_ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown_ctx)
}

// credentials are read from ?auth=name:pass, ?username=&password=, or the
// Authorization header, in that order.
func connAuth(r *http.Request) string {
	url_query := r.URL.Query()
	if url_query.Has("auth") {
		return url_query.Get("auth")
	}
	if url_query.Has("username") || url_query.Has("password") {
		return url_query.Get("username") + ":" + url_query.Get("password")
	}
	return r.Header.Get("Authorization")
}

func HttpError(w http.ResponseWriter, status int, err string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(NewErrorResponse(status, err).Marshal())
}

func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if s.User != nil && !s.User.Authenticate(connAuth(r)) {
		pkg.InfoLog("connection unauthorized from", r.RemoteAddr)
		HttpError(w, http.StatusUnauthorized, "connection unauthorized")
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	conn_id := uuid.New()
	pkg.InfoLog("New connection established", conn_id, "from", r.RemoteAddr)
	defer conn.Close()
	defer pkg.InfoLog("Connection closed", conn_id)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("unexpected close", conn_id, err)
			} else {
				pkg.DebugLog("connection closed", conn_id, err)
			}
			return
		}

		res := s.handleMessage(message)
		if err := conn.WriteMessage(websocket.TextMessage, res.Marshal()); err != nil {
			pkg.ErrorLog("writing response", conn_id, err)
			return
		}
	}
}

func (s *Server) handleMessage(message []byte) Response {
	req, err := ParseWsRequest(message)
	if err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	op, err := parser.Parse(req.Command)
	if err != nil {
		res := ErrorResponse(err)
		res.ReqId = req.ReqId
		return res
	}

	var res Response
	if s.User != nil && !s.User.HasClearance(requiredRole(op.Kind())) {
		res = NewErrorResponse(http.StatusForbidden, fmt.Sprintf("User %s cannot run %s", s.User.Name, op.Kind()))
	} else {
		res = s.Session.Run(op, func(parser.Operation) bool { return req.Confirm })
	}
	res.ReqId = req.ReqId
	return res
}

func requiredRole(kind parser.OperationKind) auth.UserRole {
	switch {
	case kind.IsReadOnly():
		return auth.UserRoleReadOnly
	case kind == parser.OpCreate || kind == parser.OpDrop:
		return auth.UserRoleAdmin
	}
	return auth.UserRoleReadWrite
}
