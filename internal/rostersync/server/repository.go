package server

import (
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/tansive/rostersync/internal/common/apperrors"
	"github.com/tansive/rostersync/internal/rostersync/collection"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

var (
	ErrUnknownTenant    = apperrors.New("unknown tenant").SetStatusCode(http.StatusNotFound)
	ErrEntityNotFound   = apperrors.New("entity not found").SetStatusCode(http.StatusNotFound)
	ErrVersionConflict  = apperrors.New("entity was changed since it was read").SetStatusCode(http.StatusConflict)
	ErrUnknownReference = apperrors.New("entity refers to an unknown entity").SetStatusCode(http.StatusBadRequest)
)

type tenantData struct {
	skills    []domain.Skill
	contracts []domain.Contract
	spots     []domain.Spot
	employees []domain.Employee
}

// Repository keeps every tenant's entities in memory. Ids are unique across all
// tenants and kinds. Stored slices are never modified in place, so a list handed
// out stays valid after the lock is released.
type Repository struct {
	mu      sync.Mutex
	nextID  int64
	tenants []domain.Tenant
	data    map[int]*tenantData
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{data: map[int]*tenantData{}}
}

// AddTenant creates a tenant. Tenant ids are assigned from 0 upwards.
func (r *Repository) AddTenant(name string) domain.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := len(r.tenants)
	t := domain.Tenant{ID: domain.Int64(int64(id)), Version: domain.Int64(0), Name: name}
	r.tenants = collection.WithElement(r.tenants, t)
	r.data[id] = &tenantData{}
	return t
}

// Tenants returns every tenant.
func (r *Repository) Tenants() []domain.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tenants)
}

// must be called with r.mu held
func (r *Repository) tenant(id int) (*tenantData, error) {
	td, ok := r.data[id]
	if !ok {
		return nil, ErrUnknownTenant.Msg(fmt.Sprintf("tenant %d does not exist", id))
	}
	return td, nil
}

// table describes how one kind is stored and how it relates to the other kinds.
type table[E domain.Entity] struct {
	items     func(td *tenantData) *[]E
	stamp     func(e E, id, version int64) E
	versionOf func(e E) *int64
	// resolve replaces embedded entities with the stored copies.
	resolve func(td *tenantData, e E) (E, error)
	// referenced reports whether another entity embeds the one with id.
	referenced func(td *tenantData, id int64) bool
	// propagate rewrites the copies of e embedded in other entities.
	propagate func(td *tenantData, e E)
}

func list[E domain.Entity](r *Repository, t *table[E], tenantID int) ([]E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, err := r.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	items := *t.items(td)
	if items == nil {
		return []E{}, nil
	}
	return slices.Clone(items), nil
}

func get[E domain.Entity](r *Repository, t *table[E], tenantID int, id int64) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero E
	td, err := r.tenant(tenantID)
	if err != nil {
		return zero, err
	}
	stored, ok := collection.FindByID(*t.items(td), id)
	if !ok {
		return zero, ErrEntityNotFound.Msg(fmt.Sprintf("%s %d does not exist", zero.Kind(), id))
	}
	return stored, nil
}

func add[E domain.Entity](r *Repository, t *table[E], tenantID int, draft E) (E, error) {
	var zero E
	if err := domain.ValidateDraft(draft); err != nil {
		return zero, err
	}
	if err := domain.ValidateTenant(draft, tenantID); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	td, err := r.tenant(tenantID)
	if err != nil {
		return zero, err
	}
	if t.resolve != nil {
		if draft, err = t.resolve(td, draft); err != nil {
			return zero, err
		}
	}
	created := t.stamp(draft, r.nextID, 0)
	r.nextID++
	items := t.items(td)
	*items = collection.WithElement(*items, created)
	return created, nil
}

func update[E domain.Entity](r *Repository, t *table[E], tenantID int, e E) (E, error) {
	var zero E
	if err := domain.ValidatePersisted(e); err != nil {
		return zero, err
	}
	if err := domain.ValidateTenant(e, tenantID); err != nil {
		return zero, err
	}
	id, _ := e.Identity()

	r.mu.Lock()
	defer r.mu.Unlock()

	td, err := r.tenant(tenantID)
	if err != nil {
		return zero, err
	}
	items := t.items(td)
	stored, ok := collection.FindByID(*items, id)
	if !ok {
		return zero, ErrEntityNotFound.Msg(fmt.Sprintf("%s %d does not exist", e.Kind(), id))
	}
	storedVersion, sentVersion := *t.versionOf(stored), *t.versionOf(e)
	if storedVersion != sentVersion {
		return zero, ErrVersionConflict.Msg(fmt.Sprintf("%s %d is at version %d, not %d", e.Kind(), id, storedVersion, sentVersion))
	}
	if t.resolve != nil {
		if e, err = t.resolve(td, e); err != nil {
			return zero, err
		}
	}
	updated := t.stamp(e, id, storedVersion+1)
	*items = collection.WithUpdatedElement(*items, updated)
	if t.propagate != nil {
		t.propagate(td, updated)
	}
	return updated, nil
}

// remove reports false when the entity does not exist or is still referenced.
func remove[E domain.Entity](r *Repository, t *table[E], tenantID int, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	td, err := r.tenant(tenantID)
	if err != nil {
		return false, err
	}
	items := t.items(td)
	stored, ok := collection.FindByID(*items, id)
	if !ok {
		return false, nil
	}
	if t.referenced != nil && t.referenced(td, id) {
		return false, nil
	}
	*items = collection.WithoutElement(*items, stored)
	return true, nil
}
