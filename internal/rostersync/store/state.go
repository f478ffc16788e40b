package store

import (
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// TenantData tracks the known tenants and which one is active.
type TenantData struct {
	CurrentTenantID int             `json:"currentTenantId"`
	TenantList      []domain.Tenant `json:"tenantList"`
}

// State is the whole client-side state. Every collection except the tenant list is
// scoped to TenantData.CurrentTenantID.
type State struct {
	TenantData   TenantData             `json:"tenantData"`
	SkillList    Slice[domain.Skill]    `json:"skillList"`
	ContractList Slice[domain.Contract] `json:"contractList"`
	SpotList     Slice[domain.Spot]     `json:"spotList"`
	EmployeeList Slice[domain.Employee] `json:"employeeList"`
}

// ReduceState is the root reducer. Actions carrying entities of a tenant other than
// the active one are ignored.
func ReduceState(s State, a Action) State {
	if ct, ok := a.(ChangeTenant); ok {
		if ct.TenantID == s.TenantData.CurrentTenantID {
			return s
		}
		return State{
			TenantData: TenantData{
				CurrentTenantID: ct.TenantID,
				TenantList:      s.TenantData.TenantList,
			},
		}
	}
	if !a.belongsTo(s.TenantData.CurrentTenantID) {
		return s
	}

	tenants := Reduce(Slice[domain.Tenant]{List: s.TenantData.TenantList}, a)
	return State{
		TenantData: TenantData{
			CurrentTenantID: s.TenantData.CurrentTenantID,
			TenantList:      tenants.List,
		},
		SkillList:    Reduce(s.SkillList, a),
		ContractList: Reduce(s.ContractList, a),
		SpotList:     Reduce(s.SpotList, a),
		EmployeeList: Reduce(s.EmployeeList, a),
	}
}
