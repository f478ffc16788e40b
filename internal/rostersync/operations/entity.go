package operations

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tansive/rostersync/internal/common/httpclient"
	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/store"
	"github.com/tidwall/gjson"
)

// EntityOperations performs the four remote operations for one entity kind against
// the store's current tenant.
type EntityOperations[E domain.Entity] struct {
	kind     domain.Kind
	client   httpclient.Client
	store    Dispatcher
	onUpdate []Refresher
}

var _ Refresher = (*EntityOperations[domain.Skill])(nil)

// NewEntityOperations creates the operations for E.
func NewEntityOperations[E domain.Entity](client httpclient.Client, d Dispatcher) *EntityOperations[E] {
	var zero E
	return &EntityOperations[E]{
		kind:   zero.Kind(),
		client: client,
		store:  d,
	}
}

// OnUpdate appends collections to refresh after every successful update, in order.
func (o *EntityOperations[E]) OnUpdate(refreshers ...Refresher) *EntityOperations[E] {
	o.onUpdate = append(o.onUpdate, refreshers...)
	return o
}

// Kind returns the entity kind the operations act on.
func (o *EntityOperations[E]) Kind() domain.Kind {
	return o.kind
}

func (o *EntityOperations[E]) basePath() string {
	return o.tenantPath(o.store.CurrentTenantID())
}

func (o *EntityOperations[E]) tenantPath(tenantID int) string {
	return fmt.Sprintf("/tenant/%d/%s/", tenantID, o.kind)
}

// Fetch retrieves the collection and returns the RefreshList action for it. The
// action is tied to the tenant current when the request was made, so a response
// arriving after a tenant switch is dropped by the reducer.
func (o *EntityOperations[E]) Fetch(ctx context.Context) (store.Action, error) {
	tenantID := o.store.CurrentTenantID()
	path := o.tenantPath(tenantID)
	body, err := o.client.Get(ctx, path)
	if err != nil {
		logFailure(ctx, "refresh", path, err)
		return nil, transportError(ErrRefreshFailed, err)
	}
	list, err := decode[[]E](body, string(o.kind)+" list")
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []E{}
	}
	return store.RefreshedFor(tenantID, list), nil
}

// RefreshList replaces the collection in the store with the server's.
func (o *EntityOperations[E]) RefreshList(ctx context.Context) error {
	action, err := o.Fetch(ctx)
	if err != nil {
		return err
	}
	o.store.Dispatch(action)
	return nil
}

// Add creates draft on the server, adds the created entity to the store and
// returns it.
func (o *EntityOperations[E]) Add(ctx context.Context, draft E) (E, error) {
	var zero E
	if err := domain.ValidateDraft(draft); err != nil {
		return zero, err
	}
	if err := domain.ValidateTenant(draft, o.store.CurrentTenantID()); err != nil {
		return zero, err
	}

	path := o.basePath() + "add"
	body, err := o.client.Post(ctx, path, draft)
	if err != nil {
		logFailure(ctx, "add", path, err)
		return zero, transportError(ErrAddFailed, err)
	}
	created, err := decode[E](body, string(o.kind))
	if err != nil {
		return zero, err
	}
	o.store.Dispatch(store.Added(created))
	return created, nil
}

// Update sends e to the server, which checks its version. The server's copy
// replaces e in the store, then the dependent collections are refreshed. If only
// the refresh fails, the updated entity is returned with ErrCascadeFailed.
func (o *EntityOperations[E]) Update(ctx context.Context, e E) (E, error) {
	var zero E
	if err := domain.ValidatePersisted(e); err != nil {
		return zero, err
	}
	if err := domain.ValidateTenant(e, o.store.CurrentTenantID()); err != nil {
		return zero, err
	}

	path := o.basePath() + "update"
	body, err := o.client.Post(ctx, path, e)
	if err != nil {
		logFailure(ctx, "update", path, err)
		if httpclient.IsConflict(err) {
			return zero, ErrStaleEntity.Err(err)
		}
		return zero, transportError(ErrUpdateFailed, err)
	}
	updated, err := decode[E](body, string(o.kind))
	if err != nil {
		return zero, err
	}
	o.store.Dispatch(store.Updated(updated))

	if err := RefreshInOrder(ctx, o.store, o.onUpdate...); err != nil {
		return updated, ErrCascadeFailed.Err(err)
	}
	return updated, nil
}

// Remove deletes e on the server. The server may decline, for example when the
// entity is still referenced; the store is then left as is and no error is returned.
func (o *EntityOperations[E]) Remove(ctx context.Context, e E) error {
	id, ok := e.Identity()
	if !ok {
		return domain.ErrIDMissing
	}
	if err := domain.ValidateTenant(e, o.store.CurrentTenantID()); err != nil {
		return err
	}

	path := o.basePath() + strconv.FormatInt(id, 10)
	body, err := o.client.Delete(ctx, path)
	if err != nil {
		logFailure(ctx, "remove", path, err)
		return transportError(ErrRemoveFailed, err)
	}
	if !gjson.ValidBytes(body) {
		return ErrBadResponse.Msg("invalid removal result in response")
	}
	if !gjson.ParseBytes(body).Bool() {
		log.Ctx(ctx).Info().Str("kind", string(o.kind)).Int64("id", id).Msg("server declined removal")
		return nil
	}
	o.store.Dispatch(store.Removed(e))
	return nil
}
