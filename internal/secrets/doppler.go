// Package secrets reads sensitive configuration from the Doppler CLI
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DopplerClient provides access to secrets stored in Doppler
type DopplerClient struct {
	Project string
	Config  string

	mu          sync.Mutex
	initialized bool
	cache       map[string]string
}

// NewDopplerClient creates a new Doppler client
func NewDopplerClient(project, config string) *DopplerClient {
	return &DopplerClient{
		Project: project,
		Config:  config,
	}
}

// Initialize checks that the Doppler CLI is installed
func (d *DopplerClient) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := exec.LookPath("doppler"); err != nil {
		return fmt.Errorf("doppler CLI not found: %w", err)
	}
	d.initialized = true
	return nil
}

// GetSecret retrieves a secret. Values already in the environment (doppler run) win.
func (d *DopplerClient) GetSecret(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return "", fmt.Errorf("doppler client not initialized")
	}

	if d.cache == nil {
		secrets, err := d.download()
		if err != nil {
			return "", err
		}
		d.cache = secrets
	}

	value, ok := d.cache[key]
	if !ok {
		return "", fmt.Errorf("secret %s not found in doppler config %s", key, d.Config)
	}
	return value, nil
}

// download fetches the whole config once
func (d *DopplerClient) download() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "doppler", "secrets", "download",
		"--project", d.Project,
		"--config", d.Config,
		"--no-file",
		"--format", "json")

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to download doppler secrets: %w", err)
	}

	secrets := make(map[string]string)
	if err := json.Unmarshal(output, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse doppler secrets: %w", err)
	}
	return secrets, nil
}

// GetSecretWithFallback gets a secret from Doppler with a fallback value
func (d *DopplerClient) GetSecretWithFallback(key, fallback string) string {
	value, err := d.GetSecret(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
