package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mscrnt/mcadecode/pkg/agent"
	"github.com/spf13/cobra"
)

func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Remote decode agent",
		Long:  "Manage the mcadecode remote agent for network decode requests and host identification",
	}

	cmd.AddCommand(agentServeCmd())
	cmd.AddCommand(agentConnectCmd())

	return cmd
}

func agentServeCmd() *cobra.Command {
	var (
		port     int
		certFile string
		keyFile  string
		caFile   string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the decode agent server",
		Long: `Start the mcadecode agent server with mTLS authentication.

The agent exposes the following endpoints:
  /hostinfo - Host information (CPU, memory, disk, network)
  /hostsig  - Best-effort host Processor Signature
  /decode   - Decode one raw MCA record submitted as JSON
  /logs     - Application logs (with optional tail parameter)
  /health   - Health check endpoint

Examples:
  mcadecode agent serve --cert server.pem --key server.key --ca ca.pem

  mcadecode agent serve --port 2223 --cert server.pem --key server.key --ca ca.pem --log agent.log

  export MCADECODE_AGENT_PORT=2223
  export MCADECODE_AGENT_CERT=server.pem
  export MCADECODE_AGENT_KEY=server.key
  export MCADECODE_AGENT_CA=ca.pem
  mcadecode agent serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if certFile == "" {
				certFile = os.Getenv("MCADECODE_AGENT_CERT")
			}
			if keyFile == "" {
				keyFile = os.Getenv("MCADECODE_AGENT_KEY")
			}
			if caFile == "" {
				caFile = os.Getenv("MCADECODE_AGENT_CA")
			}
			if envPort := os.Getenv("MCADECODE_AGENT_PORT"); envPort != "" && !cmd.Flags().Changed("port") {
				if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
					return fmt.Errorf("invalid MCADECODE_AGENT_PORT: %w", err)
				}
			}

			config := agent.Config{
				Port:     port,
				CertFile: certFile,
				KeyFile:  keyFile,
				CAFile:   caFile,
				LogFile:  logFile,
			}

			server, err := agent.NewServer(config)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Start()
			}()

			fmt.Printf("Agent server started on port %d with mTLS\n", port)
			fmt.Printf("Certificate: %s\n", certFile)
			fmt.Printf("CA: %s\n", caFile)
			fmt.Println("\nPress Ctrl+C to stop...")

			select {
			case sig := <-sigChan:
				fmt.Printf("\nReceived signal: %v\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutdown error: %w", err)
				}
				fmt.Println("Server stopped gracefully")
				return nil

			case err := <-errChan:
				return fmt.Errorf("server error: %w", err)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 2223, "Port to listen on")
	cmd.Flags().StringVar(&certFile, "cert", "", "Server certificate file (required)")
	cmd.Flags().StringVar(&keyFile, "key", "", "Server private key file (required)")
	cmd.Flags().StringVar(&caFile, "ca", "", "CA certificate file for client verification (required)")
	cmd.Flags().StringVar(&logFile, "log", "", "Log file path (optional)")

	return cmd
}

func agentConnectCmd() *cobra.Command {
	var (
		host     string
		port     int
		certFile string
		keyFile  string
		caFile   string
		endpoint string
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to a remote agent",
		Long: `Connect to a mcadecode agent and retrieve information.

Available endpoints:
  hostinfo - Host information
  hostsig  - Best-effort host Processor Signature
  logs     - Application logs
  health   - Health check

Examples:
  mcadecode agent connect --host 192.168.1.100 --endpoint hostinfo \
    --cert client.pem --key client.key --ca ca.pem

  mcadecode agent connect --host server.local --endpoint "logs?tail=50" \
    --cert client.pem --key client.key --ca ca.pem

  mcadecode agent connect --host 192.168.1.100 --endpoint hostinfo \
    --cert client.pem --key client.key --ca ca.pem --pretty`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if certFile == "" {
				certFile = os.Getenv("MCADECODE_CLIENT_CERT")
			}
			if keyFile == "" {
				keyFile = os.Getenv("MCADECODE_CLIENT_KEY")
			}
			if caFile == "" {
				caFile = os.Getenv("MCADECODE_CLIENT_CA")
			}

			config := agent.ClientConfig{
				Host:     host,
				Port:     port,
				CertFile: certFile,
				KeyFile:  keyFile,
				CAFile:   caFile,
				Endpoint: endpoint,
			}

			client, err := agent.NewClient(config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			data, err := client.Connect()
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}

			if pretty && strings.HasPrefix(string(data), "{") {
				var formatted interface{}
				if err := json.Unmarshal(data, &formatted); err == nil {
					prettyData, err := json.MarshalIndent(formatted, "", "  ")
					if err == nil {
						fmt.Println(string(prettyData))
						return nil
					}
				}
			}

			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Target host")
	cmd.Flags().IntVar(&port, "port", 2223, "Target port")
	cmd.Flags().StringVar(&certFile, "cert", "", "Client certificate file (required)")
	cmd.Flags().StringVar(&keyFile, "key", "", "Client private key file (required)")
	cmd.Flags().StringVar(&caFile, "ca", "", "CA certificate file for server verification (required)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "hostinfo", "Endpoint to connect to")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty print JSON output")

	return cmd
}
