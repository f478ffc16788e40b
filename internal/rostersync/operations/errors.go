package operations

import (
	"net/http"

	"github.com/tansive/rostersync/internal/common/apperrors"
	"github.com/tansive/rostersync/internal/common/httpclient"
)

var (
	ErrOperationFailed = apperrors.New("operation failed").SetStatusCode(http.StatusBadGateway)
	ErrRefreshFailed   = ErrOperationFailed.New("unable to refresh collection")
	ErrAddFailed       = ErrOperationFailed.New("unable to add entity")
	ErrUpdateFailed    = ErrOperationFailed.New("unable to update entity")
	ErrRemoveFailed    = ErrOperationFailed.New("unable to remove entity")
	ErrStaleEntity     = ErrUpdateFailed.New("entity was modified by someone else").SetStatusCode(http.StatusConflict)
	ErrCascadeFailed   = ErrOperationFailed.New("unable to refresh dependent collections")
	ErrBadResponse     = ErrOperationFailed.New("unexpected response from server")
)

// transportError attaches err to base, keeping the server's status code when there is one.
func transportError(base apperrors.Error, err error) error {
	if code := httpclient.StatusCode(err); code != 0 {
		return base.Err(err).SetStatusCode(code)
	}
	return base.Err(err)
}
