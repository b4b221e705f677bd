// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/navhud/image565"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navhud.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(cfg, defaultConfig()); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}
	if got := cfg.GetTickInterval(); got != 5*time.Millisecond {
		t.Errorf("GetTickInterval() = %v", got)
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	if cfg.HUD.WebFormat != "png" {
		t.Errorf("HUD.WebFormat = %q, want png", cfg.HUD.WebFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
display:
  rotation: 270
  offset_x: 0
  offset_y: 34
  reset: ""
storage:
  image: /var/lib/navhud/flash.img
  icon_dir: icons
mqtt:
  broker:
    host: broker.local
  topic_prefix: car/hud
hud:
  layout: landscape
  web_addr: ":8080"
logging:
  packages:
    iconpipe: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := defaultConfig()
	want.Display.Rotation = 270
	want.Display.OffsetX = 0
	want.Display.OffsetY = 34
	want.Display.Reset = ""
	want.Storage.Image = "/var/lib/navhud/flash.img"
	want.Storage.IconDir = "icons"
	want.MQTT.Broker.Host = "broker.local"
	want.MQTT.TopicPrefix = "car/hud"
	want.HUD.Layout = "landscape"
	want.HUD.WebAddr = ":8080"
	want.Logging.Packages = map[string]string{"iconpipe": "debug"}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NAVHUD_MQTT_HOST", "10.0.0.2")
	t.Setenv("NAVHUD_MQTT_PORT", "8883")
	t.Setenv("NAVHUD_MQTT_USERNAME", "hud")
	t.Setenv("NAVHUD_MQTT_PASSWORD", "secret")
	t.Setenv("NAVHUD_STORAGE_IMAGE", "/tmp/x.img")
	t.Setenv("NAVHUD_SPI_PORT", "SPI1.0")
	t.Setenv("NAVHUD_LOG_LEVEL", "debug")
	cfg, err := Load(writeConfig(t, "mqtt:\n  broker:\n    host: ignored\n"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	got := []string{cfg.MQTT.Broker.Host, cfg.MQTT.Auth.Username, cfg.MQTT.Auth.Password, cfg.Storage.Image, cfg.Display.SPIPort, cfg.Logging.Level}
	want := []string{"10.0.0.2", "hud", "secret", "/tmp/x.img", "SPI1.0", "debug"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("overrides difference (-got +want):\n%s", diff)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("port = %d", cfg.MQTT.Broker.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
	if _, err := Load(writeConfig(t, "display: [\n")); err == nil {
		t.Error("Load(invalid yaml) succeeded")
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"dc", func(c *Config) { c.Display.DC = "" }, "display.dc"},
		{"rotation", func(c *Config) { c.Display.Rotation = 45 }, "display.rotation"},
		{"brightness", func(c *Config) { c.Display.Brightness = 101 }, "display.brightness"},
		{"size", func(c *Config) { c.Storage.Size = 5000 }, "storage.size"},
		{"icons", func(c *Config) { c.Icons.Width, c.Icons.Height = 3, 3 }, "icons.width"},
		{"color", func(c *Config) { c.Icons.Active = "blue" }, "icons.active"},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"prefix", func(c *Config) { c.MQTT.TopicPrefix = "a/#" }, "mqtt.topic_prefix"},
		{"layout", func(c *Config) { c.HUD.Layout = "diagonal" }, "hud.layout"},
		{"tick", func(c *Config) { c.HUD.TickInterval = 0 }, "hud.tick_interval_ms"},
		{"web", func(c *Config) { c.HUD.WebFormat = "gif" }, "hud.web_format"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tc.want)
			}
		})
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	for s, want := range map[string]image565.Color{
		"#0000FF": image565.Blue,
		"#FFFFFF": image565.White,
		"ff0000":  image565.Red,
		"#00ff00": image565.Green,
	} {
		got, err := ParseColor(s)
		if err != nil || got != want {
			t.Errorf("ParseColor(%q) = %#04x, %v", s, uint16(got), err)
		}
	}
	for _, s := range []string{"", "#fff", "#gggggg"} {
		if _, err := ParseColor(s); err == nil {
			t.Errorf("ParseColor(%q) succeeded", s)
		}
	}
}
