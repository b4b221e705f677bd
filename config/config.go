// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the navhud configuration.
//
// Configuration is read from YAML over built-in defaults, then NAVHUD_*
// environment variables override a few deployment specific keys.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/navhud/image565"
)

// Config is the root configuration structure.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Icons   IconsConfig   `yaml:"icons"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HUD     HUDConfig     `yaml:"hud"`
	Logging LoggingConfig `yaml:"logging"`
}

// DisplayConfig describes the ST7789 wiring and geometry.
//
// Pin names are looked up in the gpio registry. An empty name means the
// line is not connected.
type DisplayConfig struct {
	SPIPort    string `yaml:"spi_port"`
	SpeedHz    int64  `yaml:"speed_hz"`
	DC         string `yaml:"dc"`
	CS         string `yaml:"cs"`
	Reset      string `yaml:"reset"`
	Backlight  string `yaml:"backlight"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Rotation   int    `yaml:"rotation"`
	OffsetX    int    `yaml:"offset_x"`
	OffsetY    int    `yaml:"offset_y"`
	Brightness int    `yaml:"brightness"`
	BGR        bool   `yaml:"bgr"`
}

// StorageConfig describes the flash image holding the icon cache.
type StorageConfig struct {
	Image          string `yaml:"image"`
	Size           int64  `yaml:"size"`
	BlockSize      int64  `yaml:"block_size"`
	FormatIfFailed bool   `yaml:"format_if_failed"`
	IconDir        string `yaml:"icon_dir"`
}

// IconsConfig describes the maneuver icons.
type IconsConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Active   string `yaml:"active"`
	Inactive string `yaml:"inactive"`
	Invert   bool   `yaml:"invert"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// HUDConfig contains presentation settings.
type HUDConfig struct {
	Layout       string `yaml:"layout"`
	SpeedUnit    string `yaml:"speed_unit"`
	TickInterval int    `yaml:"tick_interval_ms"`
	Splash       bool   `yaml:"splash"`
	// WebAddr is the listen address of the MJPEG mirror, empty to disable.
	WebAddr string `yaml:"web_addr"`
	// WebFormat is "png" or "jpeg".
	WebFormat string `yaml:"web_format"`
}

// LoggingConfig contains log levels, globally and per package.
type LoggingConfig struct {
	Level    string            `yaml:"level"`
	Packages map[string]string `yaml:"packages"`
}

// Load reads the configuration from path.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied, for running without a file.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig matches a 1.47" 172x320 panel wired to SPI0 of a Raspberry
// Pi, in portrait.
func defaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			SPIPort:    "SPI0.0",
			SpeedHz:    40000000,
			DC:         "GPIO25",
			Reset:      "GPIO27",
			Backlight:  "GPIO18",
			Width:      172,
			Height:     320,
			Rotation:   180,
			OffsetX:    34,
			Brightness: 100,
		},
		Storage: StorageConfig{
			Image:          "./navhud.flash",
			Size:           1 << 20,
			BlockSize:      4096,
			FormatIfFailed: true,
		},
		Icons: IconsConfig{
			Width:    64,
			Height:   64,
			Active:   "#0000FF",
			Inactive: "#FFFFFF",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "navhud",
			},
			QoS:         1,
			TopicPrefix: "navhud",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		HUD: HUDConfig{
			Layout:       "portrait",
			SpeedUnit:    "km/h",
			TickInterval: 5,
			Splash:       true,
			WebFormat:    "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyEnvOverrides applies NAVHUD_SECTION_KEY environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NAVHUD_SPI_PORT"); v != "" {
		cfg.Display.SPIPort = v
	}
	if v := os.Getenv("NAVHUD_STORAGE_IMAGE"); v != "" {
		cfg.Storage.Image = v
	}
	if v := os.Getenv("NAVHUD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NAVHUD_MQTT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = p
		}
	}
	if v := os.Getenv("NAVHUD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NAVHUD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("NAVHUD_WEB_ADDR"); v != "" {
		cfg.HUD.WebAddr = v
	}
	if v := os.Getenv("NAVHUD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Display.DC == "" {
		errs = append(errs, "display.dc is required")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, "display.width and display.height must be positive")
	}
	switch c.Display.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, "display.rotation must be 0, 90, 180 or 270")
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 100 {
		errs = append(errs, "display.brightness must be between 0 and 100")
	}

	if c.Storage.Image == "" {
		errs = append(errs, "storage.image is required")
	}
	if c.Storage.BlockSize <= 0 || c.Storage.Size < 2*c.Storage.BlockSize || c.Storage.Size%c.Storage.BlockSize != 0 {
		errs = append(errs, "storage.size must be a multiple of storage.block_size, at least two blocks")
	}

	if c.Icons.Width <= 0 || c.Icons.Height <= 0 || c.Icons.Width*c.Icons.Height%8 != 0 {
		errs = append(errs, "icons.width*icons.height must be a positive multiple of 8")
	}
	if _, err := ParseColor(c.Icons.Active); err != nil {
		errs = append(errs, "icons.active: "+err.Error())
	}
	if _, err := ParseColor(c.Icons.Inactive); err != nil {
		errs = append(errs, "icons.inactive: "+err.Error())
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Host != "" && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if strings.ContainsAny(c.MQTT.TopicPrefix, "#+") {
		errs = append(errs, "mqtt.topic_prefix must not contain wildcards")
	}

	switch c.HUD.Layout {
	case "portrait", "landscape", "vertical", "horizontal":
	default:
		errs = append(errs, "hud.layout must be portrait or landscape")
	}
	switch c.HUD.WebFormat {
	case "png", "jpg", "jpeg":
	default:
		errs = append(errs, "hud.web_format must be png or jpeg")
	}
	if c.HUD.TickInterval <= 0 {
		errs = append(errs, "hud.tick_interval_ms must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetTickInterval returns the HUD tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.HUD.TickInterval) * time.Millisecond
}

// ParseColor parses a "#RRGGBB" color into RGB565.
func ParseColor(s string) (image565.Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q, want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q, want #RRGGBB", s)
	}
	return image565.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
