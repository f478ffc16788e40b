package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type transportError struct {
	code int
}

func (e *transportError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

func TestError(t *testing.T) {
	t.Run("chaining", func(t *testing.T) {
		ErrBaseErr := New("base error")
		assert.Equal(t, "base error", ErrBaseErr.Error())
		assert.Equal(t, "msg", ErrBaseErr.New("msg").Error())
		assert.ErrorIs(t, ErrBaseErr, ErrBaseErr)

		ErrFirstLevel := ErrBaseErr.New("first level")
		assert.Equal(t, "first level", ErrFirstLevel.Error())
		assert.ErrorIs(t, ErrFirstLevel, ErrBaseErr)

		ErrAnotherErr := New("another error")
		ErrAnotherErrMsg := ErrAnotherErr.Msg("another error msg")
		ErrWrappedErr := ErrFirstLevel.Err(ErrAnotherErrMsg)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrFirstLevel)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErrMsg)

		err := errors.New("error")
		ErrWrappedErr = ErrFirstLevel.MsgErr("msg", err)
		assert.Equal(t, "msg", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)
		assert.NotErrorIs(t, ErrWrappedErr, ErrAnotherErr)
	})

	t.Run("status codes", func(t *testing.T) {
		ErrBadInput := New("bad input").SetStatusCode(http.StatusBadRequest)
		derived := ErrBadInput.New("name is required")
		assert.Equal(t, http.StatusBadRequest, derived.StatusCode())
		assert.Equal(t, http.StatusBadRequest, StatusCodeOf(derived, http.StatusInternalServerError))
		assert.Equal(t, http.StatusInternalServerError, StatusCodeOf(New("no code"), http.StatusInternalServerError))
		assert.Equal(t, http.StatusTeapot, StatusCodeOf(errors.New("plain"), http.StatusTeapot))
	})

	t.Run("ErrorAll includes attached errors", func(t *testing.T) {
		ErrRefresh := New("unable to refresh list")
		err := ErrRefresh.Err(&transportError{code: 503})
		assert.Equal(t, "unable to refresh list", err.Error())
		assert.Equal(t, "unable to refresh list: status 503", err.ErrorAll())
	})

	t.Run("As reaches attached errors", func(t *testing.T) {
		ErrRefresh := New("unable to refresh list")
		err := ErrRefresh.New("skill").Err(&transportError{code: 409})
		var te *transportError
		if assert.ErrorAs(t, err, &te) {
			assert.Equal(t, 409, te.code)
		}
	})
}
