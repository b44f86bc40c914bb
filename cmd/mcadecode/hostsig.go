package main

import (
	"fmt"

	"github.com/mscrnt/mcadecode/pkg/hostsig"
	"github.com/spf13/cobra"
)

func hostsigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hostsig",
		Short: "Print this host's best-effort Processor Signature",
		Long: `hostsig queries the local CPU and prints its Processor
Signature in the "FF_MMH" form accepted by --signature on decode and
watch, for hosts where the operator doesn't have a raw CPUID.01H EAX
value handy.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			sig := hostsig.Detect()
			fmt.Printf("Vendor:    %s\n", sig.VendorID)
			fmt.Printf("Family:    %d\n", sig.Family)
			fmt.Printf("Model:     %d\n", sig.Model)
			fmt.Printf("Stepping:  %d\n", sig.Stepping)
			fmt.Printf("ModelName: %s\n", sig.ModelName)
			fmt.Printf("Signature: %s\n", sig.ProcessorSignature())
			return nil
		},
	}
}
