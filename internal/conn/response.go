package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg"
)

// StatusCancelled marks a destructive command the user declined to confirm.
const StatusCancelled = http.StatusPreconditionRequired

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__tdb_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

// ErrorResponse renders err with the status it carries; anything that isn't
// a core error is a 500.
func ErrorResponse(err error) Response {
	return NewErrorResponse(types.ErrorStatus(err), err.Error())
}

// ResponseError turns a failed Response back into an error.
func ResponseError(r Response) error {
	return fmt.Errorf("%s (status %d)", r.Message, r.Status)
}

func (r Response) Ok() bool { return r.Status >= 200 && r.Status < 300 }

func (r Response) Marshal() []byte {
	buf, err := json.Marshal(r)
	if err != nil {
		pkg.ErrorLog("marshalling response", err)
		buf, _ = json.Marshal(NewErrorResponse(http.StatusInternalServerError, err.Error()))
	}
	return buf
}
