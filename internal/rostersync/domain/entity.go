// Package domain defines the tenant-scoped rostering records that are kept in sync
// with the rostering REST service: skills, contracts, spots and employees, plus the
// tenants that partition them.
package domain

// Kind names an entity type. It doubles as the REST resource segment
// (/tenant/{tenantId}/{kind}/) and as the prefix of action types.
type Kind string

const (
	KindTenant   Kind = "tenant"
	KindSkill    Kind = "skill"
	KindContract Kind = "contract"
	KindSpot     Kind = "spot"
	KindEmployee Kind = "employee"
)

// Entity is a record that can live in a collection slice. Identity reports the
// server-assigned id and whether one has been assigned yet.
type Entity interface {
	Kind() Kind
	Identity() (int64, bool)
}

// TenantScoped is implemented by every entity that belongs to exactly one tenant.
type TenantScoped interface {
	Entity
	Tenant() int
}

// Int64 returns a pointer to v. Handy for literal ids and versions.
func Int64(v int64) *int64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// SameIdentity reports whether a and b carry the same assigned id.
// Entities without an id never match anything.
func SameIdentity(a, b Entity) bool {
	aid, ok := a.Identity()
	if !ok {
		return false
	}
	bid, ok := b.Identity()
	return ok && aid == bid
}

func identity(id *int64) (int64, bool) {
	if id == nil {
		return 0, false
	}
	return *id, true
}

// Tenant is an isolation partition. Every other entity kind is scoped to one tenant.
type Tenant struct {
	ID      *int64 `json:"id,omitempty"`
	Version *int64 `json:"version,omitempty"`
	Name    string `json:"name" validate:"required,max=120"`
}

func (Tenant) Kind() Kind { return KindTenant }
func (t Tenant) Identity() (int64, bool) { return identity(t.ID) }

// Skill is a named capability. Spots require skills and employees hold them; both
// embed copies of the skill record, so a rename stales those collections.
type Skill struct {
	TenantID int    `json:"tenantId" validate:"gte=0"`
	ID       *int64 `json:"id,omitempty"`
	Version  *int64 `json:"version,omitempty"`
	Name     string `json:"name" validate:"required,max=120"`
}

func (Skill) Kind() Kind { return KindSkill }
func (s Skill) Identity() (int64, bool) { return identity(s.ID) }
func (s Skill) Tenant() int { return s.TenantID }

// Contract bounds how many minutes an employee may work per period. A nil limit
// means unbounded.
type Contract struct {
	TenantID               int    `json:"tenantId" validate:"gte=0"`
	ID                     *int64 `json:"id,omitempty"`
	Version                *int64 `json:"version,omitempty"`
	Name                   string `json:"name" validate:"required,max=120"`
	MaximumMinutesPerDay   *int   `json:"maximumMinutesPerDay,omitempty" validate:"omitempty,gte=0,lte=1440"`
	MaximumMinutesPerWeek  *int   `json:"maximumMinutesPerWeek,omitempty" validate:"omitempty,gte=0,lte=10080"`
	MaximumMinutesPerMonth *int   `json:"maximumMinutesPerMonth,omitempty" validate:"omitempty,gte=0"`
	MaximumMinutesPerYear  *int   `json:"maximumMinutesPerYear,omitempty" validate:"omitempty,gte=0"`
}

func (Contract) Kind() Kind { return KindContract }
func (c Contract) Identity() (int64, bool) { return identity(c.ID) }
func (c Contract) Tenant() int { return c.TenantID }

// Spot is a place where shifts happen.
type Spot struct {
	TenantID         int     `json:"tenantId" validate:"gte=0"`
	ID               *int64  `json:"id,omitempty"`
	Version          *int64  `json:"version,omitempty"`
	Name             string  `json:"name" validate:"required,max=120"`
	RequiredSkillSet []Skill `json:"requiredSkillSet" validate:"dive"`
}

func (Spot) Kind() Kind { return KindSpot }
func (s Spot) Identity() (int64, bool) { return identity(s.ID) }
func (s Spot) Tenant() int { return s.TenantID }

// Employee works shifts under a contract and holds a set of skills.
type Employee struct {
	TenantID            int      `json:"tenantId" validate:"gte=0"`
	ID                  *int64   `json:"id,omitempty"`
	Version             *int64   `json:"version,omitempty"`
	Name                string   `json:"name" validate:"required,max=120"`
	Contract            Contract `json:"contract"`
	SkillProficiencySet []Skill  `json:"skillProficiencySet" validate:"dive"`
}

func (Employee) Kind() Kind { return KindEmployee }
func (e Employee) Identity() (int64, bool) { return identity(e.ID) }
func (e Employee) Tenant() int { return e.TenantID }
