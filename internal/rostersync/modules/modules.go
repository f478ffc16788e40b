// Package modules wires the operations for every entity kind to one transport and
// one store, and declares which collections go stale when another one changes.
package modules

import (
	"context"

	"github.com/tansive/rostersync/internal/common/httpclient"
	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/operations"
)

// Modules holds the operations of every kind.
type Modules struct {
	Tenants   *operations.TenantOperations
	Skills    *operations.EntityOperations[domain.Skill]
	Contracts *operations.EntityOperations[domain.Contract]
	Spots     *operations.EntityOperations[domain.Spot]
	Employees *operations.EntityOperations[domain.Employee]

	store operations.Dispatcher
}

// New creates the operations and their cascades. Spots and employees embed skills,
// and employees embed their contract.
func New(client httpclient.Client, store operations.Dispatcher) *Modules {
	m := &Modules{
		Tenants:   operations.NewTenantOperations(client, store),
		Skills:    operations.NewEntityOperations[domain.Skill](client, store),
		Contracts: operations.NewEntityOperations[domain.Contract](client, store),
		Spots:     operations.NewEntityOperations[domain.Spot](client, store),
		Employees: operations.NewEntityOperations[domain.Employee](client, store),
		store:     store,
	}
	m.Skills.OnUpdate(m.Spots, m.Employees)
	m.Contracts.OnUpdate(m.Employees)
	m.Tenants.OnChange(m.tenantScoped()...)
	return m
}

func (m *Modules) tenantScoped() []operations.Refresher {
	return []operations.Refresher{m.Skills, m.Contracts, m.Spots, m.Employees}
}

// RefreshAll loads the tenant list and every collection of the current tenant.
func (m *Modules) RefreshAll(ctx context.Context) error {
	refreshers := append([]operations.Refresher{m.Tenants}, m.tenantScoped()...)
	return operations.RefreshInOrder(ctx, m.store, refreshers...)
}
