package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulsehealth/pulse/internal/meals"
)

var (
	parseJSON bool
	parseLog  string
	parseUser string
	parseDate string
)

var parseCmd = &cobra.Command{
	Use:   "parse [description]",
	Short: "Parse a meal description from the command line",
	Long: `Parses a free-text meal description into structured food items with
estimated calories and macronutrients. With --log, the meal is also
saved and the day's totals updated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		description := strings.Join(args, " ")
		ctx := context.Background()

		if parseLog != "" {
			mealType := meals.MealType(strings.ToUpper(parseLog))
			if !meals.IsValidMealType(mealType) {
				return fmt.Errorf("--log must be breakfast, lunch, dinner or snack")
			}
			date := parseDate
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			entry, parsed, err := a.processor.ProcessWithAgent(ctx, parseUser, mealType, description, date, "")
			if err != nil {
				return err
			}
			if parseJSON {
				return json.NewEncoder(os.Stdout).Encode(entry)
			}
			printParsed(parsed)
			fmt.Printf("\nLogged as %s on %s (%d items).\n", mealType, date, len(entry.Items))
			return nil
		}

		parsed, err := a.processor.ParseAndEnrich(ctx, description)
		if err != nil {
			return err
		}
		if parseJSON {
			return json.NewEncoder(os.Stdout).Encode(parsed)
		}
		printParsed(parsed)
		return nil
	},
}

func printParsed(parsed *meals.ParsedMeal) {
	fmt.Printf("Identified %d item(s), overall confidence %.2f\n", len(parsed.Items), parsed.OverallConfidence)
	for _, item := range parsed.Items {
		fmt.Printf("\n  %s — %g %s", item.FoodName, item.Quantity, strings.ToLower(string(item.Unit)))
		if item.EstimatedCalories != nil {
			fmt.Printf(", ~%.0f kcal", *item.EstimatedCalories)
		}
		fmt.Printf(" (confidence %.2f, %s)\n", item.ConfidenceScore, item.Source)
		if m := item.Macronutrients; m != nil {
			fmt.Printf("    protein %.1fg  carbs %.1fg  fat %.1fg  fiber %.1fg\n",
				m.ProteinGrams, m.CarbsGrams, m.FatGrams, m.FiberGrams)
		}
	}
	for _, w := range parsed.Warnings {
		fmt.Printf("\nwarning: %s", w)
	}
	if parsed.RequiresVerification {
		fmt.Println("\nSome items have low confidence; verify before trusting the totals.")
	}
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output JSON instead of text")
	parseCmd.Flags().StringVar(&parseLog, "log", "", "also log the meal as this meal type (breakfast, lunch, dinner, snack)")
	parseCmd.Flags().StringVar(&parseUser, "user", "default", "user to log the meal for")
	parseCmd.Flags().StringVar(&parseDate, "date", "", "meal date as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(parseCmd)
}
