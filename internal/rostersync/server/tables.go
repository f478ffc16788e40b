package server

import (
	"fmt"

	"github.com/tansive/rostersync/internal/rostersync/collection"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

var skills = &table[domain.Skill]{
	items: func(td *tenantData) *[]domain.Skill { return &td.skills },
	stamp: func(s domain.Skill, id, version int64) domain.Skill {
		s.ID, s.Version = domain.Int64(id), domain.Int64(version)
		return s
	},
	versionOf: func(s domain.Skill) *int64 { return s.Version },
	referenced: func(td *tenantData, id int64) bool {
		for _, spot := range td.spots {
			if _, ok := collection.FindByID(spot.RequiredSkillSet, id); ok {
				return true
			}
		}
		for _, e := range td.employees {
			if _, ok := collection.FindByID(e.SkillProficiencySet, id); ok {
				return true
			}
		}
		return false
	},
	propagate: func(td *tenantData, s domain.Skill) {
		spots := make([]domain.Spot, len(td.spots))
		for i, spot := range td.spots {
			spot.RequiredSkillSet = collection.WithUpdatedElement(spot.RequiredSkillSet, s)
			spots[i] = spot
		}
		employees := make([]domain.Employee, len(td.employees))
		for i, e := range td.employees {
			e.SkillProficiencySet = collection.WithUpdatedElement(e.SkillProficiencySet, s)
			employees[i] = e
		}
		td.spots, td.employees = spots, employees
	},
}

var contracts = &table[domain.Contract]{
	items: func(td *tenantData) *[]domain.Contract { return &td.contracts },
	stamp: func(c domain.Contract, id, version int64) domain.Contract {
		c.ID, c.Version = domain.Int64(id), domain.Int64(version)
		return c
	},
	versionOf: func(c domain.Contract) *int64 { return c.Version },
	referenced: func(td *tenantData, id int64) bool {
		for _, e := range td.employees {
			if cid, ok := e.Contract.Identity(); ok && cid == id {
				return true
			}
		}
		return false
	},
	propagate: func(td *tenantData, c domain.Contract) {
		employees := make([]domain.Employee, len(td.employees))
		for i, e := range td.employees {
			if domain.SameIdentity(e.Contract, c) {
				e.Contract = c
			}
			employees[i] = e
		}
		td.employees = employees
	},
}

var spots = &table[domain.Spot]{
	items: func(td *tenantData) *[]domain.Spot { return &td.spots },
	stamp: func(s domain.Spot, id, version int64) domain.Spot {
		s.ID, s.Version = domain.Int64(id), domain.Int64(version)
		return s
	},
	versionOf: func(s domain.Spot) *int64 { return s.Version },
	resolve: func(td *tenantData, s domain.Spot) (domain.Spot, error) {
		var err error
		s.RequiredSkillSet, err = resolveSkills(td, s.RequiredSkillSet)
		return s, err
	},
}

var employees = &table[domain.Employee]{
	items: func(td *tenantData) *[]domain.Employee { return &td.employees },
	stamp: func(e domain.Employee, id, version int64) domain.Employee {
		e.ID, e.Version = domain.Int64(id), domain.Int64(version)
		return e
	},
	versionOf: func(e domain.Employee) *int64 { return e.Version },
	resolve: func(td *tenantData, e domain.Employee) (domain.Employee, error) {
		cid, ok := e.Contract.Identity()
		if !ok {
			return e, ErrUnknownReference.Msg("employee contract has no id")
		}
		contract, ok := collection.FindByID(td.contracts, cid)
		if !ok {
			return e, ErrUnknownReference.Msg(fmt.Sprintf("contract %d does not exist", cid))
		}
		e.Contract = contract
		var err error
		e.SkillProficiencySet, err = resolveSkills(td, e.SkillProficiencySet)
		return e, err
	},
}

func resolveSkills(td *tenantData, set []domain.Skill) ([]domain.Skill, error) {
	resolved := make([]domain.Skill, 0, len(set))
	for _, s := range set {
		id, ok := s.Identity()
		if !ok {
			return nil, ErrUnknownReference.Msg("skill has no id")
		}
		stored, ok := collection.FindByID(td.skills, id)
		if !ok {
			return nil, ErrUnknownReference.Msg(fmt.Sprintf("skill %d does not exist", id))
		}
		resolved = append(resolved, stored)
	}
	return resolved, nil
}
