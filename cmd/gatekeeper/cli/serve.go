package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/handler"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/server"
)

const banner = `
  ____       _       _
 / ___| __ _| |_ ___| | _____  ___ _ __   ___ _ __
| |  _ / _' | __/ _ \ |/ / _ \/ _ \ '_ \ / _ \ '__|
| |_| | (_| | ||  __/   <  __/  __/ |_) |  __/ |
 \____|\__,_|\__\___|_|\_\___|\___| .__/ \___|_|
                                  |_|
`

func newServeCmd() *cobra.Command {
	var (
		dev    bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gatekeeper API server",
		Long: `Start the HTTP server that exposes the /admin routes, the JWKS document,
health probes, /metrics and /openapi.json.`,
		Example: `  gatekeeper serve
  gatekeeper serve --port 8080 --dev
  gatekeeper serve --daemon          # detach; see 'gatekeeper status' and 'gatekeeper stop'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return runDaemon()
			}
			return runServe(cmd.Context(), dev)
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")
	cmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "Run in the background and write a PID file")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context, dev bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, dev)
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Print(banner)
	fmt.Println()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ready := map[string]handler.Pinger{"redis": a.cache, "database": a.store}
	deps := server.Deps{
		Sessions: a.sessions,
		Tokens:   a.tokens,
		Keys:     a.keys,
		Messages: a.messages,
		Ready:    ready,
		Closers:  []io.Closer{a},
		Logger:   logger,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = a.metrics
	}

	srv, err := server.New(server.ConfigFrom(cfg, versionString()), deps)
	if err != nil {
		a.Close()
		return err
	}

	dir := resolveDataDir(cfg)
	if err := writePID(dir, os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "error", err)
	}
	defer removePID(dir)

	host := cfg.Server.Host
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
	fmt.Printf("→ Gatekeeper %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	fmt.Printf("→ Session policy: %s, ttl %d days\n", cfg.Session.Policy, cfg.Session.TTLDays)
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Printf("→ JWKS:       %s/.well-known/jwks.json\n", base)
	fmt.Printf("→ Health:     %s/healthz\n", base)
	if cfg.Metrics.Enabled {
		fmt.Printf("→ Metrics:    %s/metrics\n", base)
	}
	fmt.Println()

	return srv.ListenAndServe()
}

// runDaemon re-executes the binary without --daemon in a new session, with
// output appended to the data-dir log file.
func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := resolveDataDir(cfg)

	if pid, err := readPID(dir); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a == "--daemon" || a == "-d" || a == "--daemon=true" {
			continue
		}
		args = append(args, a)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(daemonLogPath(dir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if err := writePID(dir, child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}

	fmt.Printf("Gatekeeper started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", daemonLogPath(dir))
	return child.Process.Release()
}
