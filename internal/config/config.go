package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultAddr      = ":8080"
	DefaultServerURL = "ws://localhost:8080/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
)

// Config holds the settings shared by the server and the demo client.
type Config struct {
	// Addr is the server listen address.
	Addr string

	// ServerURL is the signaling endpoint a client dials.
	ServerURL string

	// ICE servers for peer negotiation.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options carries CLI flag overrides.
type Options struct {
	Addr       string
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Load reads configuration with flag > environment > default priority.
// A .env file in the working directory is folded into the environment
// when present.
func Load(opts Options) (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Addr:       firstOf(opts.Addr, os.Getenv("ADDR"), DefaultAddr),
		ServerURL:  firstOf(opts.ServerURL, os.Getenv("SERVER_URL"), DefaultServerURL),
		STUNServer: firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstOf(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:   firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:   firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
	}

	if cfg.TURNServer != "" && (cfg.TURNUser == "" || cfg.TURNPass == "") {
		return nil, fmt.Errorf("TURN server %q configured without credentials", cfg.TURNServer)
	}
	return cfg, nil
}

// GetSTUNServers returns STUN server URLs.
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns the TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
