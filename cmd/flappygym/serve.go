package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappygym/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServeEnv    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the flappygym SSH server",
	Long: `Start an SSH server that lets users connect and play an environment.

Each SSH connection gets its own episode with a fresh random seed.
Scores are stored per-server (all users share the same leaderboard).

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.flappygym/host_key

Examples:
  flappygym serve                           # Listen on :23234 with auto-generated key
  flappygym serve --ssh :2222               # Listen on port 2222
  flappygym serve --env simple              # Show the distance readout
  flappygym serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServeEnv, "env", "screen", "Environment every session plays")
}

func runServe(_ *cobra.Command, _ []string) {
	requireEnv(flagServeEnv)
	cfg := loadConfig()

	srvCfg := tui.DefaultSSHServerConfig()
	srvCfg.Address = flagSSHAddr
	srvCfg.HostKeyPath = flagHostKey
	srvCfg.DBPath = dbPath(cfg)
	srvCfg.EnvID = flagServeEnv
	srvCfg.Runtime = cfg.Runtime(0)
	if flagIdleTimeout > 0 {
		srvCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	logger := newLogger("flappygym-ssh")
	server, err := tui.NewSSHServer(srvCfg, logger)
	if err != nil {
		fatalf("creating server: %v", err)
	}

	fmt.Printf("Starting flappygym SSH server on %s\n", srvCfg.Address)
	fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(srvCfg.Address))
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fatalf("server: %v", err)
	}
}

// portOf returns the port part of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
