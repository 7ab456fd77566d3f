package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/config"
	"github.com/cuemby/randpick/pkg/log"
)

// Config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get SECTION KEY",
	Short: "Print one setting",
	Long: `Print one setting. A value that only exists in the shipped defaults is
copied into config.ini on first read. If that copy cannot be written the
value is still printed, with a warning.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := app.Config.Get(args[0], args[1])
		if err != nil && !errors.Is(err, config.ErrPromotionFailed) {
			return err
		}
		fmt.Println(value)
		if err != nil {
			log.Warn(err.Error())
			fmt.Fprintf(os.Stderr, "⚠ %v\n", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set SECTION KEY VALUE [SECTION KEY VALUE...]",
	Short: "Change one or more settings",
	Long: `Change settings in a single write. Arguments are section, key, value
triples.

Examples:
  # Draw only from groups 0 and 2
  randpick config set Group global false Group groups "0, 2"

  # Stop recording history
  randpick config set History record false`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%3 != 0 {
			return fmt.Errorf("expected SECTION KEY VALUE triples, got %d arguments", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Picker.Configure(args...); err != nil {
			return err
		}
		fmt.Printf("✓ Updated %d settings\n", len(args)/3)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every setting, defaults included",
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := app.Config.Sections()
		if err != nil {
			return err
		}

		for i, section := range config.SortedKeys(sections) {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("[%s]\n", section)
			keys := sections[section]
			for _, key := range config.SortedKeys(keys) {
				fmt.Printf("%s = %s\n", key, keys[key])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
