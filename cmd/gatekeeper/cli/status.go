package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the Gatekeeper server is running",
		Long:  "Report the server process state and the result of its /readyz probe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := resolveDataDir(cfg)

	pid, err := readPID(dir)
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}
	if !isProcessRunning(pid) {
		removePID(dir)
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	readyAddr := fmt.Sprintf("http://%s:%d/readyz", host, cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(readyAddr)
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but not responding to HTTP.\n", pid)
		fmt.Printf("  Logs: %s\n", daemonLogPath(dir))
		return nil
	}
	defer resp.Body.Close()

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  Ready:   %s (%d %s)\n", readyAddr, resp.StatusCode, body.Status)
	for name, state := range body.Checks {
		fmt.Printf("    %-9s %s\n", name+":", state)
	}
	fmt.Printf("  Logs:    %s\n", daemonLogPath(dir))
	return nil
}
