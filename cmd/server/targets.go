package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/service"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets <user-id>",
	Short: "Print a user's daily calorie, macro and water targets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), cfg, internal.NewNopLogger(), func(store storage.Store) error {
			u, err := store.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTargets(cmd.OutOrStdout(), u, time.Now())
		})
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func printTargets(w io.Writer, u *internal.User, now time.Time) error {
	t := service.CalculateTargets(u, now)
	if t == nil {
		return fmt.Errorf("user %s: %w", u.ID, internal.ErrProfileIncomplete)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Height\t%s\n", service.FormatHeight(*u.Height))
	fmt.Fprintf(tw, "BMI\t%.1f (%s)\n", t.BMI, t.BMICategory)
	fmt.Fprintf(tw, "BMR\t%d kcal\n", t.BMR)
	fmt.Fprintf(tw, "TDEE\t%d kcal\n", t.TDEE)
	fmt.Fprintf(tw, "Goal\t%s\n", t.GoalLabel)
	fmt.Fprintf(tw, "Daily calories\t%d kcal\n", t.DailyCalories)
	fmt.Fprintf(tw, "Protein\t%d g\n", t.ProteinG)
	fmt.Fprintf(tw, "Carbs\t%d g\n", t.CarbsG)
	fmt.Fprintf(tw, "Fat\t%d g\n", t.FatG)
	fmt.Fprintf(tw, "Water\t%d oz (%.1f cups)\n", t.WaterOz, service.EffectiveWaterGoalCups(u, t))
	return tw.Flush()
}
