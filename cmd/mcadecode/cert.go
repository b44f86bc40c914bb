package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mscrnt/mcadecode/pkg/cert"
	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/spf13/cobra"
)

func certCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificate management",
		Long:  "Issue and verify attestation certificates for decode runs",
	}

	cmd.AddCommand(certInitCmd())
	cmd.AddCommand(certIssueCmd())
	cmd.AddCommand(certVerifyCmd())

	return cmd
}

func defaultCAPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mcadecode", "ca"), nil
}

func certInitCmd() *cobra.Command {
	var (
		caPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize certificate authority",
		Long: `Initialize a certificate authority (CA) for signing decode run
attestation certificates.

Examples:
  mcadecode cert init
  mcadecode cert init --ca-path /path/to/ca
  mcadecode cert init --force`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if caPath == "" {
				p, err := defaultCAPath()
				if err != nil {
					return err
				}
				caPath = p
			}

			if err := os.MkdirAll(caPath, 0o700); err != nil {
				return fmt.Errorf("failed to create CA directory: %w", err)
			}

			certPath := filepath.Join(caPath, "ca.crt")
			keyPath := filepath.Join(caPath, "ca.key")

			if !force {
				if _, err := os.Stat(certPath); err == nil {
					return fmt.Errorf("CA certificate already exists at %s (use --force to overwrite)", certPath)
				}
			}

			issuer, err := cert.NewCertificateIssuer()
			if err != nil {
				return fmt.Errorf("failed to create CA: %w", err)
			}

			if err := issuer.SaveCA(certPath, keyPath); err != nil {
				return fmt.Errorf("failed to save CA: %w", err)
			}

			fmt.Println("Certificate Authority initialized successfully")
			fmt.Printf("CA Certificate: %s\n", certPath)
			fmt.Printf("CA Private Key: %s\n", keyPath)
			fmt.Println("\nIMPORTANT: Keep the private key secure and backed up!")

			return nil
		},
	}

	cmd.Flags().StringVar(&caPath, "ca-path", "", "Path to CA directory")
	cmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing CA")

	return cmd
}

func certIssueCmd() *cobra.Command {
	var (
		runID     int64
		latest    bool
		source    string
		output    string
		keyOutput string
		caPath    string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate for a decode run",
		Long: `Issue a certificate attesting to a decode run's events.

The certificate contains cryptographically signed run data including:
- Run status (OK/ERROR)
- Source log
- Run duration
- Up to five event summaries (bank, UCR class, MCA code)

Examples:
  mcadecode cert issue --latest
  mcadecode cert issue --run 42
  mcadecode cert issue --run 42 --output run-cert.pem --key run-key.pem`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !latest && runID == 0 {
				return fmt.Errorf("either --latest or --run must be specified")
			}

			if caPath == "" {
				p, err := defaultCAPath()
				if err != nil {
					return err
				}
				caPath = p
			}

			certPath := filepath.Join(caPath, "ca.crt")
			keyPath := filepath.Join(caPath, "ca.key")

			issuer, err := cert.LoadCA(certPath, keyPath)
			if err != nil {
				return fmt.Errorf("failed to load CA (run 'mcadecode cert init' first): %w", err)
			}

			database, err := db.Open(getDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			if latest {
				runs, err := database.ListRuns(db.RunFilter{Source: source, Limit: 1})
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}
				if len(runs) == 0 {
					return fmt.Errorf("no runs found")
				}
				runID = runs[0].ID
			}

			run, err := database.GetRun(runID)
			if err != nil {
				return fmt.Errorf("run %d not found", runID)
			}

			events, err := database.ListEvents(db.EventFilter{RunID: &runID})
			if err != nil {
				return fmt.Errorf("failed to get events: %w", err)
			}

			certificate, err := issuer.IssueCertificate(run, events)
			if err != nil {
				return fmt.Errorf("failed to issue certificate: %w", err)
			}

			if output == "" {
				timestamp := time.Now().Format("20060102_150405")
				output = fmt.Sprintf("mcadecode_cert_%d_%s.pem", runID, timestamp)
			}

			if err := certificate.Save(output, keyOutput); err != nil {
				return fmt.Errorf("failed to save certificate: %w", err)
			}

			status := "OK"
			if run.Error != "" {
				status = "ERROR"
			}

			fmt.Printf("Certificate issued for run #%d\n", runID)
			fmt.Printf("Source: %s\n", run.Source)
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("Certificate: %s\n", output)
			if keyOutput != "" {
				fmt.Printf("Private Key: %s\n", keyOutput)
			}

			fmt.Printf("\nCertificate Details:\n")
			fmt.Printf("  Subject: %s\n", certificate.Subject)
			fmt.Printf("  Serial: %s\n", certificate.SerialNumber)
			fmt.Printf("  Valid From: %s\n", certificate.NotBefore.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Valid Until: %s\n", certificate.NotAfter.Format("2006-01-02 15:04:05"))

			return nil
		},
	}

	cmd.Flags().Int64Var(&runID, "run", 0, "Run ID to issue certificate for")
	cmd.Flags().BoolVar(&latest, "latest", false, "Use latest run")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Filter by source when using --latest")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output certificate file")
	cmd.Flags().StringVar(&keyOutput, "key", "", "Output private key file (optional)")
	cmd.Flags().StringVar(&caPath, "ca-path", "", "Path to CA directory")

	return cmd
}

func certVerifyCmd() *cobra.Command {
	var caPath string

	cmd := &cobra.Command{
		Use:   "verify [certificate]",
		Short: "Verify a decode run certificate",
		Long: `Verify a decode run certificate and display its contents.

Examples:
  mcadecode cert verify run-cert.pem
  mcadecode cert verify run-cert.pem --ca-path /path/to/ca`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			certFile := args[0]

			if caPath == "" {
				p, err := defaultCAPath()
				if err != nil {
					return err
				}
				caPath = p
			}

			caCertPath := filepath.Join(caPath, "ca.crt")
			result, err := cert.VerifyCertificateFile(certFile, caCertPath)
			if err != nil {
				return fmt.Errorf("failed to verify certificate: %w", err)
			}

			fmt.Println(cert.FormatVerifyResult(result))

			if !result.Valid {
				os.Exit(1)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&caPath, "ca-path", "", "Path to CA directory")

	return cmd
}
