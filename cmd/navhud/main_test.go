// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"testing"

	logger "github.com/d2r2/go-logger"

	"github.com/GermanBionicSystems/navhud/config"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]logger.LogLevel{
		"":        logger.InfoLevel,
		"debug":   logger.DebugLevel,
		"INFO":    logger.InfoLevel,
		"warning": logger.WarnLevel,
		"error":   logger.ErrorLevel,
	} {
		if got, err := parseLevel(s); err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("parseLevel(loud) succeeded")
	}
}

func TestSetLogLevels(t *testing.T) {
	if err := setLogLevels(config.LoggingConfig{Level: "debug", Packages: map[string]string{"hud": "error"}}); err != nil {
		t.Fatal(err)
	}
	if err := setLogLevels(config.LoggingConfig{Packages: map[string]string{"hud": "loud"}}); err == nil {
		t.Error("invalid package level accepted")
	}
	if err := setLogLevels(config.LoggingConfig{Level: "info"}); err != nil {
		t.Fatal(err)
	}
}

func TestPinAbsent(t *testing.T) {
	p, err := pin("")
	if err != nil || p != nil {
		t.Errorf("pin(\"\") = %v, %v", p, err)
	}
}
