package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	apiURL      = flag.String("api", "http://localhost:8080/api/v1", "Charging API base URL")
	userID      = flag.String("user", "driver-1", "Driver user ID")
	pointID     = flag.String("point", "P001", "Charging point ID")
	vehicleID   = flag.String("vehicle", "", "Vehicle ID (optional)")
	holdMinutes = flag.Int("hold", 15, "Reservation hold (minutes)")
	meterStart  = flag.Float64("meter", 0, "Meter reading at start (kWh)")
	powerKW     = flag.Float64("power", 50, "Simulated charge power (kW)")
	targetSOC   = flag.Float64("target", 80, "Target battery percent")
	chargeFor   = flag.Duration("charge-for", 30*time.Second, "How long to charge in scenario mode")
	idleMinutes = flag.Int("idle", 0, "Idle minutes reported at stop")
	watch       = flag.Bool("watch", true, "Stream point status over websocket")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	simulator := NewSimulator(&SimulatorConfig{
		APIURL:      *apiURL,
		UserID:      *userID,
		PointID:     *pointID,
		VehicleID:   *vehicleID,
		HoldMinutes: *holdMinutes,
		MeterStart:  *meterStart,
		PowerKW:     *powerKW,
		TargetSOC:   *targetSOC,
		ChargeFor:   *chargeFor,
		IdleMinutes: *idleMinutes,
	}, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	if *watch {
		if err := simulator.Watch(); err != nil {
			logger.Warn("Point stream unavailable", zap.Error(err))
		}
	}

	if *interactive {
		runInteractiveMode(simulator)
		simulator.Stop()
		return
	}

	fmt.Printf("EV driver simulator\n")
	fmt.Printf("  User:  %s\n", *userID)
	fmt.Printf("  Point: %s\n", *pointID)
	fmt.Printf("  API:   %s\n", *apiURL)

	if err := simulator.RunScenario(); err != nil {
		simulator.Stop()
		logger.Fatal("Scenario failed", zap.Error(err))
	}
	simulator.Stop()
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nEV Driver Simulator - Interactive Mode")
	fmt.Println("======================================")
	fmt.Println("Commands:")
	fmt.Println("  points                  - List available points")
	fmt.Println("  reserve                 - Hold the configured point")
	fmt.Println("  cancel                  - Cancel the held reservation")
	fmt.Println("  start                   - Start charging (uses the reservation if held)")
	fmt.Println("  stop [kWh|estimate]     - Stop charging with a meter reading")
	fmt.Println("  summary <sessionId>     - Show a session receipt")
	fmt.Println("  quit                    - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
