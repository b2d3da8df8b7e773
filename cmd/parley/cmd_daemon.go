package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/config"
)

const (
	daemonBinary = "parleyd"
	pidFile      = "parleyd.pid"
)

var httpClient = &http.Client{Timeout: 2 * time.Second}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the parley daemon in the background",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := daemonAddr(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if isRunning(addr) {
			fmt.Fprintln(w, "✓ Daemon is already running")
			return nil
		}

		dir, err := config.EnsureParleyDir()
		if err != nil {
			return err
		}
		bin, err := findDaemonBinary()
		if err != nil {
			return err
		}

		proc := exec.Command(bin)
		proc.Dir = dir
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			proc.Env = append(os.Environ(), "PARLEY_CONFIG="+path)
		}
		configureDaemonProcess(proc)
		if err := proc.Start(); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}

		fmt.Fprint(w, "Starting daemon...")
		for range 30 {
			time.Sleep(100 * time.Millisecond)
			if isRunning(addr) {
				fmt.Fprintln(w, " ✓")
				fmt.Fprintf(w, "Daemon running at %s\n", addr)
				return nil
			}
			fmt.Fprint(w, ".")
		}
		fmt.Fprintln(w, " ✗")
		return fmt.Errorf("daemon failed to start (see %s)", filepath.Join(dir, "logs", "parleyd.log"))
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the parley daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := daemonAddr(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !isRunning(addr) {
			fmt.Fprintln(w, "Daemon is not running")
			return nil
		}

		pid, err := readPID()
		if err != nil {
			return err
		}
		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process: %w", err)
		}

		fmt.Fprint(w, "Stopping daemon...")
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("send signal: %w", err)
		}
		for range 50 {
			time.Sleep(100 * time.Millisecond)
			if !isRunning(addr) {
				fmt.Fprintln(w, " ✓")
				return nil
			}
			fmt.Fprint(w, ".")
		}
		fmt.Fprintln(w, " ✗")
		return fmt.Errorf("daemon did not stop gracefully")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := daemonAddr(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !isRunning(addr) {
			fmt.Fprintln(w, "Status: stopped")
			return nil
		}

		resp, err := httpClient.Get(addr + "/v1/status")
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		defer resp.Body.Close()

		var status struct {
			Status        string `json:"status"`
			Version       string `json:"version"`
			Uptime        int    `json:"uptime_seconds"`
			Storage       string `json:"storage"`
			WindowSize    int    `json:"window_size"`
			MetricsPolicy string `json:"metrics_policy"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("parse status: %w", err)
		}

		fmt.Fprintf(w, "Status:   %s\n", status.Status)
		fmt.Fprintf(w, "Version:  %s\n", status.Version)
		fmt.Fprintf(w, "Uptime:   %s\n", time.Duration(status.Uptime)*time.Second)
		fmt.Fprintf(w, "Storage:  %s\n", status.Storage)
		fmt.Fprintf(w, "Window:   %d sessions (%s)\n", status.WindowSize, status.MetricsPolicy)
		fmt.Fprintf(w, "Address:  %s\n", addr)
		return nil
	},
}

func daemonAddr(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", cfg.Daemon.Bind, cfg.Daemon.Port), nil
}

func isRunning(addr string) bool {
	resp, err := httpClient.Get(addr + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func readPID() (int, error) {
	dir, err := config.ParleyDir()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

// findDaemonBinary looks in PATH, then next to this executable.
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), daemonBinary)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s binary not found (build with 'go build ./cmd/parleyd')", daemonBinary)
}
