package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/picker"
	"github.com/cuemby/randpick/pkg/types"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Draw one or more students",
	Long: `Draw students from the configured scope.

The scope is every active student, or the members of the enabled groups when
Group/global is false. Students with a higher weight are drawn more often.

Examples:
  # Draw one student
  randpick pick

  # Draw three different students and note why
  randpick pick --count 3 --note "presentation order"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		note, _ := cmd.Flags().GetString("note")

		if count < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		var results []picker.Result
		if count == 1 {
			results = []picker.Result{app.Picker.PickPerson(note)}
		} else {
			results = app.Picker.PickPeople(count, note)
		}

		for _, r := range results {
			printResult(r)
		}
		warnHistory(results...)
		return nil
	},
}

var pickGroupCmd = &cobra.Command{
	Use:   "pick-group",
	Short: "Draw a group",
	Long: `Draw one group uniformly. Without any groups a single student is
drawn instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")

		result := app.Picker.PickGroup(note)
		printResult(result)
		warnHistory(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(pickGroupCmd)

	pickCmd.Flags().IntP("count", "n", 1, "Number of different students to draw")
	pickCmd.Flags().String("note", "", "Note stored with the history entry")
	pickGroupCmd.Flags().String("note", "", "Note stored with the history entry")
}

func printResult(r picker.Result) {
	switch {
	case !r.Found:
		fmt.Printf("%s  %s\n", r.Student.ID, r.Student.Name)
	case r.Mode == types.ModeGroup:
		fmt.Printf("%s: %s\n", r.Group.Name, strings.Join(r.MemberNames, ", "))
	default:
		fmt.Printf("%s %s\t(%s)\n", displayID(r.Student.ID), r.Student.Name, r.Student.ID)
	}
}

// displayID shortens long ids to their last two characters, the way class
// numbers are usually called out
func displayID(id types.StudentID) string {
	s := string(id)
	if len(s) > 2 {
		return s[len(s)-2:]
	}
	return s
}

// warnHistory reports history write failures without failing the draw
func warnHistory(results ...picker.Result) {
	for _, r := range results {
		if r.Err != nil {
			log.Warn(r.Err.Error())
			fmt.Printf("⚠ %v\n", r.Err)
		}
	}
}
