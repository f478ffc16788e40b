// Package store holds the client-side rostering state. State only changes by
// dispatching an Action, which the reducers fold into a new State value; the
// previous State is never modified.
package store

import (
	"strings"

	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// Action describes something that happened. The set is closed: every variant is
// defined in this package.
type Action interface {
	// Type is "<kind>/<verb>", e.g. "skill/refreshList".
	Type() string
	// belongsTo reports whether the action is scoped to tenantID.
	belongsTo(tenantID int) bool
}

// RefreshList replaces a whole collection with the server's view of it. TenantID
// is the tenant the list was fetched for; when nil, the tenant is taken from the
// entities themselves, which is only meaningful for a non-empty list.
type RefreshList[E domain.Entity] struct {
	TenantID *int `json:"tenantId,omitempty"`
	Entities []E  `json:"entities"`
}

// AddEntity carries an entity just created by the server, with its id and version.
type AddEntity[E domain.Entity] struct {
	Entity E `json:"entity"`
}

// UpdateEntity carries the server's copy of an entity after an accepted update.
type UpdateEntity[E domain.Entity] struct {
	Entity E `json:"entity"`
}

// RemoveEntity carries the entity that was deleted. Only its id is used.
type RemoveEntity[E domain.Entity] struct {
	Entity E `json:"entity"`
}

// ChangeTenant switches the active tenant. Tenant-scoped collections are emptied
// because they belong to the previous tenant.
type ChangeTenant struct {
	TenantID int `json:"tenantId"`
}

// Refreshed builds a RefreshList action.
func Refreshed[E domain.Entity](entities []E) RefreshList[E] {
	return RefreshList[E]{Entities: entities}
}

// RefreshedFor builds a RefreshList action for a list fetched for tenantID.
func RefreshedFor[E domain.Entity](tenantID int, entities []E) RefreshList[E] {
	return RefreshList[E]{TenantID: &tenantID, Entities: entities}
}

// Added builds an AddEntity action.
func Added[E domain.Entity](e E) AddEntity[E] {
	return AddEntity[E]{Entity: e}
}

// Updated builds an UpdateEntity action.
func Updated[E domain.Entity](e E) UpdateEntity[E] {
	return UpdateEntity[E]{Entity: e}
}

// Removed builds a RemoveEntity action.
func Removed[E domain.Entity](e E) RemoveEntity[E] {
	return RemoveEntity[E]{Entity: e}
}

func (RefreshList[E]) Type() string { return actionType[E]("refreshList") }
func (AddEntity[E]) Type() string { return actionType[E]("add") }
func (UpdateEntity[E]) Type() string { return actionType[E]("update") }
func (RemoveEntity[E]) Type() string { return actionType[E]("remove") }
func (ChangeTenant) Type() string { return string(domain.KindTenant) + "/change" }

func (a RefreshList[E]) belongsTo(tenantID int) bool {
	if a.TenantID != nil {
		return *a.TenantID == tenantID
	}
	for _, e := range a.Entities {
		if !scopedTo(e, tenantID) {
			return false
		}
	}
	return true
}

func (a AddEntity[E]) belongsTo(tenantID int) bool { return scopedTo(a.Entity, tenantID) }
func (a UpdateEntity[E]) belongsTo(tenantID int) bool { return scopedTo(a.Entity, tenantID) }
func (a RemoveEntity[E]) belongsTo(tenantID int) bool { return scopedTo(a.Entity, tenantID) }
func (ChangeTenant) belongsTo(int) bool { return true }

// Topic is the event bus topic a dispatched action is published on:
// "action.<kind>.<verb>".
func Topic(a Action) string {
	return "action." + strings.ReplaceAll(a.Type(), "/", ".")
}

func actionType[E domain.Entity](verb string) string {
	var zero E
	return string(zero.Kind()) + "/" + verb
}

func scopedTo(e domain.Entity, tenantID int) bool {
	ts, ok := e.(domain.TenantScoped)
	return !ok || ts.Tenant() == tenantID
}
