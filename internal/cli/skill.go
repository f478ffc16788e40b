package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/tansive/rostersync/internal/rostersync/collection"
	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/operations"
)

func newSkillCmd(opts *options) *cobra.Command {
	return kindCmd("skill", "Work on skills",
		skillLister.command(opts),
		newSkillAddCmd(opts),
		newSkillRenameCmd(opts),
		newSkillDeleteCmd(opts),
	)
}

func newSkillAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.modules.Skills.Add(cmd.Context(), domain.Skill{
				TenantID: a.store.CurrentTenantID(),
				Name:     args[0],
			})
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), opts.format(), created, func(w io.Writer) {
				printOK(w, "Skill added: %s", describeSkill(created))
			})
		},
	}
}

func newSkillRenameCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a skill; spots and employees are reloaded afterwards",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := findSkill(cmd, a, id)
			if err != nil {
				return err
			}
			raw, err := json.Marshal(current)
			if err != nil {
				return err
			}
			if raw, err = sjson.SetBytes(raw, "name", args[1]); err != nil {
				return err
			}
			var renamed domain.Skill
			if err := json.Unmarshal(raw, &renamed); err != nil {
				return err
			}

			updated, err := a.modules.Skills.Update(cmd.Context(), renamed)
			if errors.Is(err, operations.ErrStaleEntity) {
				return fmt.Errorf("skill %d was changed by someone else, list the skills and try again: %w", id, err)
			}
			if err != nil && !errors.Is(err, operations.ErrCascadeFailed) {
				return err
			}
			if err != nil {
				warnLabel.Fprintf(cmd.ErrOrStderr(), "Skill renamed, but spots and employees could not be reloaded: %v\n", err)
			}
			return printValue(cmd.OutOrStdout(), opts.format(), updated, func(w io.Writer) {
				printOK(w, "Skill renamed: %s", describeSkill(updated))
			})
		},
	}
}

func newSkillDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a skill that no spot or employee refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			target, err := findSkill(cmd, a, id)
			if err != nil {
				return err
			}
			if err := a.modules.Skills.Remove(cmd.Context(), target); err != nil {
				return err
			}

			// A declined removal leaves the skill in the store.
			_, kept := collection.FindByID(a.store.GetState().SkillList.List, id)
			result := map[string]any{"id": id, "deleted": !kept}
			return printValue(cmd.OutOrStdout(), opts.format(), result, func(w io.Writer) {
				if kept {
					warnLabel.Fprintf(w, "Skill %d was not deleted; it is probably still required by a spot or an employee\n", id)
					return
				}
				printOK(w, "Skill deleted: %s", describeSkill(target))
			})
		},
	}
}

func findSkill(cmd *cobra.Command, a *app, id int64) (domain.Skill, error) {
	if err := a.modules.Skills.RefreshList(cmd.Context()); err != nil {
		return domain.Skill{}, err
	}
	s, ok := collection.FindByID(a.store.GetState().SkillList.List, id)
	if !ok {
		return domain.Skill{}, fmt.Errorf("skill %d not found in tenant %d", id, a.store.CurrentTenantID())
	}
	return s, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
