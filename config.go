package slcand

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	CAN    CANConfig    `yaml:"can"`
	Debug  bool         `yaml:"debug"`
}

type SerialConfig struct {
	Port     string `yaml:"port"`
	Baudrate int    `yaml:"baudrate"`
}

type CANConfig struct {
	Device    string `yaml:"device"`    // registered backend: "loopback", "socketcan"
	Interface string `yaml:"interface"` // bus interface for backends that need one
	ClockHz   uint32 `yaml:"clock_hz"`  // reference clock for bit-timing resolution
}

// DefaultConfig returns the stock configuration: loopback CAN device and the
// 8 MHz reference clock.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			Baudrate: 115200,
		},
		CAN: CANConfig{
			Device:    "loopback",
			Interface: "can0",
			ClockHz:   8_000_000,
		},
	}
}

// LoadConfig reads a YAML config file, falling back to defaults when the
// file is missing.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("no config at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.CAN.ClockHz == 0 {
		cfg.CAN.ClockHz = 8_000_000
	}
	return cfg, nil
}
