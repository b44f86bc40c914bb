package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mscrnt/mcadecode/internal/version"
	"github.com/mscrnt/mcadecode/pkg/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Build variables set by ldflags
	buildVersion string
	buildCommit  string
	buildTime    string

	// Telemetry flags
	telemetryOn       bool
	telemetryEndpoint string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcadecode",
		Short: "Intel x86 Machine-Check Exception decoder",
		Long: `mcadecode decodes IA32 Machine-Check Architecture bank status,
address, and misc registers into human-readable events: bank meaning,
UCR classification, and family-specific enrichment where the Processor
Signature is known.`,
		Version: version.GetVersion(buildVersion, buildCommit, buildTime),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			telemetry.SetAppVersion(version.GetVersion(buildVersion, buildCommit, buildTime))
			telemetry.Initialize(telemetryEndpoint, "", telemetryOn)

			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, 32<<10)
					n := runtime.Stack(stack, false)
					telemetry.RecordPanic(rec, stack[:n])
					telemetry.Shutdown()
					panic(rec) // re-panic to keep default behavior
				}
			}()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			telemetry.Shutdown()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&telemetryOn, "telemetry", false, "Enable anonymous decode-volume telemetry (opt-in)")
	rootCmd.PersistentFlags().StringVar(&telemetryEndpoint, "telemetry-endpoint", "", "Custom telemetry endpoint")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(hostsigCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(certCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.GetDetailedVersion(buildVersion, buildCommit, buildTime))
		},
	}
}
