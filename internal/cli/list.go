package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/modules"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

// lister loads one collection into the store and prints it.
type lister[E any] struct {
	title    string
	refresh  func(ctx context.Context, m *modules.Modules) error
	items    func(s store.State) []E
	describe func(e E) string
}

func (l lister[E]) command(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + l.title + " of the tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := l.refresh(cmd.Context(), a.modules); err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), opts.format(), l.title, l.items(a.store.GetState()), l.describe)
		},
	}
}

var skillLister = lister[domain.Skill]{
	title: "skills",
	refresh: func(ctx context.Context, m *modules.Modules) error {
		return m.Skills.RefreshList(ctx)
	},
	items:    func(s store.State) []domain.Skill { return s.SkillList.List },
	describe: describeSkill,
}

func describeSkill(s domain.Skill) string {
	return fmt.Sprintf("[%s] %s (version %s)", ref(s.ID), s.Name, ref(s.Version))
}

func skillName(s domain.Skill) string { return s.Name }

func newListCmds(opts *options) []*cobra.Command {
	contracts := lister[domain.Contract]{
		title: "contracts",
		refresh: func(ctx context.Context, m *modules.Modules) error {
			return m.Contracts.RefreshList(ctx)
		},
		items: func(s store.State) []domain.Contract { return s.ContractList.List },
		describe: func(c domain.Contract) string {
			var limits []string
			for _, p := range []struct {
				per   string
				limit *int
			}{
				{"day", c.MaximumMinutesPerDay},
				{"week", c.MaximumMinutesPerWeek},
				{"month", c.MaximumMinutesPerMonth},
				{"year", c.MaximumMinutesPerYear},
			} {
				if p.limit != nil {
					limits = append(limits, fmt.Sprintf("%d min/%s", *p.limit, p.per))
				}
			}
			if len(limits) == 0 {
				return fmt.Sprintf("[%s] %s", ref(c.ID), c.Name)
			}
			return fmt.Sprintf("[%s] %s, at most %s", ref(c.ID), c.Name, strings.Join(limits, ", "))
		},
	}
	spots := lister[domain.Spot]{
		title: "spots",
		refresh: func(ctx context.Context, m *modules.Modules) error {
			return m.Spots.RefreshList(ctx)
		},
		items: func(s store.State) []domain.Spot { return s.SpotList.List },
		describe: func(s domain.Spot) string {
			return fmt.Sprintf("[%s] %s, requires: %s", ref(s.ID), s.Name, joinNames(s.RequiredSkillSet, skillName))
		},
	}
	employees := lister[domain.Employee]{
		title: "employees",
		refresh: func(ctx context.Context, m *modules.Modules) error {
			return m.Employees.RefreshList(ctx)
		},
		items: func(s store.State) []domain.Employee { return s.EmployeeList.List },
		describe: func(e domain.Employee) string {
			return fmt.Sprintf("[%s] %s, %s, skills: %s", ref(e.ID), e.Name, e.Contract.Name, joinNames(e.SkillProficiencySet, skillName))
		},
	}
	tenants := lister[domain.Tenant]{
		title: "tenants",
		refresh: func(ctx context.Context, m *modules.Modules) error {
			return m.Tenants.RefreshTenantList(ctx)
		},
		items: func(s store.State) []domain.Tenant { return s.TenantData.TenantList },
		describe: func(t domain.Tenant) string {
			return fmt.Sprintf("[%s] %s", ref(t.ID), t.Name)
		},
	}

	return []*cobra.Command{
		kindCmd("contract", "Work on contracts", contracts.command(opts)),
		kindCmd("spot", "Work on spots", spots.command(opts)),
		kindCmd("employee", "Work on employees", employees.command(opts)),
		kindCmd("tenant", "Work on tenants", tenants.command(opts)),
	}
}

func kindCmd(name, short string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.AddCommand(subcommands...)
	return cmd
}
