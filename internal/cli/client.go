package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/gainhour/gainhour/internal/config"
)

// client is a thin JSON client for the daemon's control API.
type client struct {
	base string
	http *http.Client
}

// dial locates the running daemon via daemon.yaml, starting it if needed.
func dial() (*client, error) {
	if err := ensureDaemon(); err != nil {
		return nil, err
	}
	_, info, err := config.IsDaemonRunning()
	if err != nil || info == nil {
		return nil, fmt.Errorf("daemon is not reachable")
	}
	return &client{
		base: fmt.Sprintf("http://127.0.0.1:%d", info.Port),
		http: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *client) delete(path string, out any) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ensureDaemon makes sure the daemon is running, starting it if necessary.
func ensureDaemon() error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return nil
	}

	// Clean up stale daemon info if it exists
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}
	return startDaemon()
}

// startDaemon starts the daemon process in the background.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Wait for daemon to be ready (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, err := config.IsDaemonRunning()
		if err == nil && running {
			return nil
		}
	}
	return fmt.Errorf("daemon failed to start within timeout")
}

// findDaemonBinary locates the gainhourd binary.
func findDaemonBinary() (string, error) {
	// Try PATH first
	path, err := exec.LookPath("gainhourd")
	if err == nil {
		return path, nil
	}

	// Try relative to current executable
	execPath, err := os.Executable()
	if err == nil {
		daemonPath := execPath[:len(execPath)-len("gainhour")] + "gainhourd"
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	// Try build directory
	if _, err := os.Stat("./build/gainhourd"); err == nil {
		return "./build/gainhourd", nil
	}

	return "", fmt.Errorf("gainhourd not found. Install or build it first")
}
