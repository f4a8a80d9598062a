package commands

import (
	"context"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/autosentience/vigil/internal/store"
	"github.com/autosentience/vigil/internal/telematics"
	"github.com/autosentience/vigil/internal/workflow"
)

var (
	simulateVehicleID string
	simulateScenario  string
	simulateSeed      int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a telemetry scenario end to end",
	Long: `Generate a simulated sensor reading for a scenario, run rule detection
and the agent workflow against the in-memory store, and print the result.

Scenarios: NORMAL, OVERHEAT, BATTERY_LOW, OIL_PRESSURE_LOW,
TYRE_PRESSURE_LOW, RESET.`,
	Run: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateVehicleID, "vehicle-id", "SIM-001", "Vehicle id for the simulation")
	simulateCmd.Flags().StringVar(&simulateScenario, "scenario", "NORMAL", "Scenario to simulate")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "Random seed (0 uses the current time)")
	simulateCmd.Flags().StringVar(&modelName, "model", "", "Inference model name override")
}

func runSimulate(cmd *cobra.Command, args []string) {
	scenario, err := telematics.ParseScenario(simulateScenario)
	HandleError(err, "Invalid scenario")

	cfg := buildConfig(true)
	HandleError(cfg.Validate(), "Invalid configuration")

	engine, err := buildEngine(cfg)
	HandleError(err, "Failed to load rules")

	client, err := buildClient(cfg)
	HandleError(err, "Failed to create inference client")

	seed := simulateSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mem := store.NewMemory()
	runner := telematics.NewRunner(
		telematics.NewGenerator(rand.New(rand.NewSource(seed))),
		engine,
		mem,
		workflow.New(client, mem, nil),
	)

	result, err := runner.Run(context.Background(), simulateVehicleID, scenario)
	HandleError(err, "Simulation failed")

	printJSON(result)
}
