package main

import (
	"fmt"
	"strconv"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
	"github.com/mscrnt/mcadecode/pkg/scan"
	"github.com/spf13/cobra"
)

func decodeCmd() *cobra.Command {
	var (
		signature  string
		mcgCapHex  string
		noErrCtrl1 bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "decode [log-file]",
		Short: "Decode every MCE record in a log file",
		Long: `Decode reads a vmkernel/dmesg-style log file, parses every MCE
record it finds, decodes each one against pkg/mca, and persists the run
along with its events and warnings.

Examples:
  # Decode a log with no Processor Signature enrichment
  mcadecode decode /var/log/vmkernel.log

  # Decode with family-specific enrichment for a known host
  mcadecode decode /var/log/vmkernel.log --signature 06_55H

  # Seed IA32_MCG_CAP before the log's own "MCG_CAP MSR:" line is seen
  mcadecode decode /var/log/vmkernel.log --mcg-cap 0x1c09`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]

			var cap mcgcap.Capability
			if mcgCapHex != "" {
				raw, err := strconv.ParseUint(mcgCapHex, 0, 64)
				if err != nil {
					return fmt.Errorf("invalid --mcg-cap value %q: %w", mcgCapHex, err)
				}
				cap = mcgcap.Decode(raw)
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			if source == "" {
				source = path
			}

			opts := scan.Options{
				Capability:         cap,
				ProcessorSignature: signature,
				DecodeOptions:      mca.Options{ErrorControlBit1: !noErrCtrl1},
			}

			run, scanErr := scan.File(database, source, path, opts)
			if run == nil {
				return scanErr
			}

			fmt.Printf("Run #%d: %d event(s), %d warning(s)\n", run.ID, run.EventCount, run.WarningCount)
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}

			return scanErr
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Processor Signature in FF_MMH form (e.g. 06_55H), enables family-specific enrichment")
	cmd.Flags().StringVar(&mcgCapHex, "mcg-cap", "", "IA32_MCG_CAP value in hex, used until the log's own MCG_CAP line is seen")
	cmd.Flags().BoolVar(&noErrCtrl1, "no-error-control-bit1", false, "Treat MSR_ERROR_CONTROL[1] as unset (omits the 06_2DH iMC 1stErrDev/2ndErrDev/FailRank fields)")
	cmd.Flags().StringVar(&source, "source", "", "Source label recorded on the run (default: the log file path)")

	return cmd
}
