// Package operations keeps store collections in sync with the REST server. Every
// operation talks to the server first and dispatches to the store only once the
// server has answered successfully.
package operations

import (
	"context"
	"errors"
	"fmt"

	jsonitor "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/stream"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// Dispatcher is the part of the store operations depend on.
type Dispatcher interface {
	Dispatch(a store.Action)
	CurrentTenantID() int
}

// Refresher fetches a collection from the server and returns the action that would
// replace it, without dispatching. Cascades fetch concurrently and dispatch in order.
type Refresher interface {
	Fetch(ctx context.Context) (store.Action, error)
}

// RefreshInOrder fetches every refresher concurrently and dispatches the results in
// the order the refreshers are given. A failed fetch dispatches nothing; the other
// results are still dispatched and all failures are returned joined.
func RefreshInOrder(ctx context.Context, d Dispatcher, refreshers ...Refresher) error {
	var errs []error
	s := stream.New()
	for _, r := range refreshers {
		r := r
		s.Go(func() stream.Callback {
			action, err := r.Fetch(ctx)
			return func() {
				if err != nil {
					errs = append(errs, err)
					return
				}
				d.Dispatch(action)
			}
		})
	}
	s.Wait()
	return errors.Join(errs...)
}

func decode[T any](body []byte, what string) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, ErrBadResponse.MsgErr(fmt.Sprintf("invalid %s in response", what), err)
	}
	return v, nil
}

func logFailure(ctx context.Context, op, path string, err error) {
	log.Ctx(ctx).Debug().Err(err).Str("operation", op).Str("path", path).Msg("request failed")
}
