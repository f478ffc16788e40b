package operations

import (
	"context"

	"github.com/tansive/rostersync/internal/common/httpclient"
	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

const tenantPath = "/tenant/"

// TenantOperations lists tenants and switches the current one.
type TenantOperations struct {
	client   httpclient.Client
	store    Dispatcher
	onChange []Refresher
}

var _ Refresher = (*TenantOperations)(nil)

// NewTenantOperations creates the tenant operations.
func NewTenantOperations(client httpclient.Client, d Dispatcher) *TenantOperations {
	return &TenantOperations{client: client, store: d}
}

// OnChange appends collections to load after every tenant switch, in order.
func (o *TenantOperations) OnChange(refreshers ...Refresher) *TenantOperations {
	o.onChange = append(o.onChange, refreshers...)
	return o
}

// Fetch retrieves the tenant list and returns the RefreshList action for it.
func (o *TenantOperations) Fetch(ctx context.Context) (store.Action, error) {
	body, err := o.client.Get(ctx, tenantPath)
	if err != nil {
		logFailure(ctx, "refresh", tenantPath, err)
		return nil, transportError(ErrRefreshFailed, err)
	}
	list, err := decode[[]domain.Tenant](body, "tenant list")
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Tenant{}
	}
	return store.Refreshed(list), nil
}

// RefreshTenantList replaces the tenant list in the store with the server's.
func (o *TenantOperations) RefreshTenantList(ctx context.Context) error {
	action, err := o.Fetch(ctx)
	if err != nil {
		return err
	}
	o.store.Dispatch(action)
	return nil
}

// ChangeTenant makes tenantID current and loads its collections.
func (o *TenantOperations) ChangeTenant(ctx context.Context, tenantID int) error {
	o.store.Dispatch(store.ChangeTenant{TenantID: tenantID})
	if err := RefreshInOrder(ctx, o.store, o.onChange...); err != nil {
		return ErrCascadeFailed.Err(err)
	}
	return nil
}
