package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/importer"
	"github.com/cuemby/randpick/pkg/types"
)

// Roster commands
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage students",
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	RunE: func(cmd *cobra.Command, args []string) error {
		students, _, err := app.Roster.LoadAll()
		if err != nil {
			return err
		}

		if len(students) == 0 {
			fmt.Println("No students")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tID\tNAME\tWEIGHT\tACTIVE")
		for i, s := range students {
			fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%t\n", i, s.ID, s.Name, s.Weight, s.Active)
		}
		return w.Flush()
	},
}

var rosterImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import students from a CSV, XLSX or YAML file",
	Long: `Import students from a file whose first row (or YAML keys) names the
columns id, name, weight and active. Only id and name are required.

Students whose id already exists are updated in place and new ids are
appended. With --replace the file becomes the whole student list; groups are
kept either way.

Examples:
  randpick roster import class.xlsx
  randpick roster import class.csv --replace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		students, err := importer.ReadFile(args[0])
		if err != nil {
			return err
		}
		if err := app.Picker.ImportStudents(students, replace); err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		fmt.Printf("✓ Imported %d students from %s\n", len(students), args[0])
		return nil
	},
}

var rosterResetWeightsCmd = &cobra.Command{
	Use:   "reset-weights WEIGHT",
	Short: "Give every student the same weight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", args[0])
		}
		if err := app.Picker.ResetWeights(w); err != nil {
			return err
		}
		fmt.Printf("✓ All weights set to %g\n", w)
		return nil
	},
}

var rosterResetActiveCmd = &cobra.Command{
	Use:   "reset-active true|false",
	Short: "Mark every student active or inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		active, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("invalid value %q, expected true or false", args[0])
		}
		if err := app.Picker.ResetActive(active); err != nil {
			return err
		}
		fmt.Printf("✓ All students set to active=%t\n", active)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterListCmd)
	rosterCmd.AddCommand(rosterImportCmd)
	rosterCmd.AddCommand(rosterResetWeightsCmd)
	rosterCmd.AddCommand(rosterResetActiveCmd)

	rosterImportCmd.Flags().Bool("replace", false, "Replace the student list instead of merging")
}

// Group commands
var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups := app.Roster.Groups()
		if len(groups) == 0 {
			fmt.Println("No groups")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tNAME\tMEMBERS")
		for i, g := range groups {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, g.Name, strings.Join(app.Roster.GroupMemberNames(g), ", "))
		}
		return w.Flush()
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show the members of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, ok := app.Roster.FindGroupIndexByName(args[0])
		if !ok {
			return fmt.Errorf("group not found: %s", args[0])
		}
		group, ok := app.Roster.Group(idx)
		if !ok {
			return fmt.Errorf("group not found: %s", args[0])
		}

		fmt.Printf("Group: %s (index %d)\n", group.Name, idx)
		for _, pos := range app.Roster.GroupMemberIndices(group) {
			s := app.Roster.Student(pos)
			fmt.Printf("  %s  %s\n", s.ID, s.Name)
		}
		return nil
	},
}

var groupCreateCmd = &cobra.Command{
	Use:   "create NAME --member ID...",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		members, _ := cmd.Flags().GetStringSlice("member")
		if err := app.Picker.CreateGroup(args[0], studentIDs(members)); err != nil {
			return err
		}
		fmt.Printf("✓ Group created: %s (%d members)\n", args[0], len(members))
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Picker.DeleteGroup(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Group deleted: %s\n", args[0])
		return nil
	},
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Picker.RenameGroup(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ Group renamed: %s → %s\n", args[0], args[1])
		return nil
	},
}

var groupSetMembersCmd = &cobra.Command{
	Use:   "set-members NAME --member ID...",
	Short: "Replace the members of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		members, _ := cmd.Flags().GetStringSlice("member")
		if err := app.Picker.SetGroupMembers(args[0], studentIDs(members)); err != nil {
			return err
		}
		fmt.Printf("✓ Group updated: %s (%d members)\n", args[0], len(members))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupShowCmd)
	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	groupCmd.AddCommand(groupRenameCmd)
	groupCmd.AddCommand(groupSetMembersCmd)

	groupCreateCmd.Flags().StringSlice("member", nil, "Student id of a member (repeatable)")
	groupSetMembersCmd.Flags().StringSlice("member", nil, "Student id of a member (repeatable)")
	_ = groupSetMembersCmd.MarkFlagRequired("member")
}

func studentIDs(values []string) []types.StudentID {
	ids := make([]types.StudentID, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, types.StudentID(v))
		}
	}
	return ids
}
