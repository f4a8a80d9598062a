package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autosentience/vigil/internal/workflow"
)

var analyzeVehicleID string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis cycle for a vehicle",
	Long: `Fetch the latest stored reading for a vehicle, run rule detection and
the full agent workflow once, and print the result as JSON.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeVehicleID, "vehicle-id", "", "Vehicle to analyze (required)")
	analyzeCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	analyzeCmd.Flags().StringVar(&rulesPath, "rules-config", "", "Path to a YAML threshold rules file (built-in rules when empty)")
	analyzeCmd.Flags().StringVar(&modelName, "model", "", "Inference model name override")
	_ = analyzeCmd.MarkFlagRequired("vehicle-id")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg := buildConfig(false)
	HandleError(cfg.Validate(), "Invalid configuration")

	engine, err := buildEngine(cfg)
	HandleError(err, "Failed to load rules")

	st, cleanup, err := buildStore(ctx, cfg)
	HandleError(err, "Failed to connect store")
	defer cleanup()

	client, err := buildClient(cfg)
	HandleError(err, "Failed to create inference client")

	reading, err := st.LatestReading(ctx, analyzeVehicleID)
	HandleError(err, "No sensor data for vehicle")

	detection := engine.Detect(reading)
	if !detection.HasViolations {
		fmt.Printf("No violations for %s: all systems normal\n", analyzeVehicleID)
		return
	}

	existing, err := st.OpenAlerts(ctx, analyzeVehicleID)
	if err != nil {
		existing = nil
	}

	orch := workflow.New(client, st, nil)
	result, err := orch.Execute(ctx, workflow.Input{
		VehicleID:      analyzeVehicleID,
		SensorData:     reading,
		Violations:     detection.Violations,
		ExistingAlerts: existing,
	})
	HandleError(err, "Workflow failed")

	printJSON(result)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		HandleError(err, "Failed to render result")
	}
}
