// Package httpx holds the request decoding, JSON response and error envelope
// helpers shared by HTTP handlers.
package httpx

import (
	"errors"
	"io"
	"net/http"

	jsonitor "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/rostersync/internal/common/apperrors"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// MaxRequestBody bounds the size of a decoded request body.
const MaxRequestBody int64 = 1 << 20

// GetRequestData parses the JSON body of a POST or PUT request into data.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil || r.Body == http.NoBody {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBody+1))
	if err != nil {
		return ErrUnableToReadRequest()
	}
	if int64(len(body)) > MaxRequestBody {
		return ErrRequestTooLarge(MaxRequestBody)
	}
	if err := json.Unmarshal(body, data); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("unable to parse request body")
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response is what a RequestHandler returns on success.
type Response struct {
	StatusCode int
	Response   any
}

// RequestHandler defines a function type for handling HTTP requests.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHttpRsp turns a RequestHandler into an http.HandlerFunc. Errors become the
// JSON error envelope; *Error and apperrors.Error keep their status codes.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			var httperror *Error
			var appErr apperrors.Error
			switch {
			case errors.As(err, &httperror):
				httperror.Send(w)
			case errors.As(err, &appErr):
				SendError(w, appErr)
			default:
				ErrApplicationError(err.Error()).Send(w)
			}
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response)
	})
}
