package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/server"
)

var (
	serverHost  string
	serverPort  int
	serverToken string
	serverOpen  bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP status server",
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().StringVarP(&serverHost, "host", "H", "", "Host/IP to bind to (default 127.0.0.1)")
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port number (default 8080)")
	serverCmd.Flags().StringVarP(&serverToken, "token", "t", "", "Authentication token")
	serverCmd.Flags().BoolVar(&serverOpen, "open", false, "Disable token requirement (use with caution)")

	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}
	host := stringSetting(cmd, "host", serverHost, "server.host", "127.0.0.1")
	port := intSetting(cmd, "port", serverPort, "server.port", 8080)
	token := stringSetting(cmd, "token", serverToken, "server.token", "")
	open := boolSetting(cmd, "open", serverOpen, "server.open", false)

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d", port)
	}
	if !isLocalhost(host) && token == "" && !open {
		return errors.New("token required when binding to non-localhost address (use --token or --open)")
	}
	if !isLocalhost(host) && open && token == "" {
		fmt.Fprintln(os.Stderr, "Warning: server exposed without authentication (--open flag used)")
		fmt.Fprintln(os.Stderr, "Anyone with network access can view and stop your sessions!")
	}

	printServerInfo(host, port, token)

	ctx, stop := signalContext()
	defer stop()
	return server.StartServer(ctx, server.Options{
		Host:  host,
		Port:  port,
		Token: token,
		Open:  open,
	})
}

func printServerInfo(host string, port int, token string) {
	fmt.Printf("Starting qagen status server on %s:%d...\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /status        - Get all sessions")
	fmt.Println("  GET  /status/:name  - Get specific session")
	fmt.Println("  POST /stop/:name    - Stop a session (it saves before exiting)")
	if strings.TrimSpace(token) != "" {
		fmt.Println("Authentication: Bearer token required")
	} else {
		fmt.Println("Authentication: None (use --token to enable)")
	}
	fmt.Println("")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("")
}

func isLocalhost(host string) bool {
	switch host {
	case "127.0.0.1", "localhost", "::1":
		return true
	default:
		return false
	}
}
