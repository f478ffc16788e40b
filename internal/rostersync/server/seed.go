package server

import (
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// Seed adds a tenant with a small roster to repo, for demos and manual testing.
func Seed(repo *Repository, tenantName string) (domain.Tenant, error) {
	tenant := repo.AddTenant(tenantName)
	tid := int(*tenant.ID)

	var skillSet []domain.Skill
	for _, name := range []string{"Ambulatory care", "Critical care", "Pediatric care"} {
		s, err := add(repo, skills, tid, domain.Skill{TenantID: tid, Name: name})
		if err != nil {
			return tenant, err
		}
		skillSet = append(skillSet, s)
	}

	fullTime, err := add(repo, contracts, tid, domain.Contract{
		TenantID:              tid,
		Name:                  "Full time",
		MaximumMinutesPerWeek: domain.Int(40 * 60),
	})
	if err != nil {
		return tenant, err
	}

	if _, err := add(repo, spots, tid, domain.Spot{
		TenantID:         tid,
		Name:             "Emergency room",
		RequiredSkillSet: skillSet[:2],
	}); err != nil {
		return tenant, err
	}
	if _, err := add(repo, employees, tid, domain.Employee{
		TenantID:            tid,
		Name:                "Amy Cole",
		Contract:            fullTime,
		SkillProficiencySet: skillSet[1:],
	}); err != nil {
		return tenant, err
	}
	return tenant, nil
}
