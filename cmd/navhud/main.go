// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// navhud drives a ST7789 navigation head-up display fed over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/d2r2/go-logger"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/navhud/config"
	"github.com/GermanBionicSystems/navhud/flashfs"
	"github.com/GermanBionicSystems/navhud/hud"
	"github.com/GermanBionicSystems/navhud/iconcache"
	"github.com/GermanBionicSystems/navhud/iconpipe"
	"github.com/GermanBionicSystems/navhud/mqttlink"
	"github.com/GermanBionicSystems/navhud/st7789"
	"github.com/GermanBionicSystems/navhud/termsink"
	"github.com/GermanBionicSystems/navhud/webview"
)

var lg = logger.NewPackageLogger("main", logger.InfoLevel)

// splashPattern is written to every byte of the panel while starting.
const splashPattern = 0xAA

var packages = []string{"main", "iconcache", "iconpipe", "hud", "mqttlink"}

func parseLevel(s string) (logger.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return logger.DebugLevel, nil
	case "info", "":
		return logger.InfoLevel, nil
	case "notify":
		return logger.NotifyLevel, nil
	case "warn", "warning":
		return logger.WarnLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return logger.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

func setLogLevels(cfg config.LoggingConfig) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	for _, p := range packages {
		if err := logger.ChangePackageLogLevel(p, lvl); err != nil {
			return err
		}
	}
	for p, s := range cfg.Packages {
		l, err := parseLevel(s)
		if err != nil {
			return fmt.Errorf("logging.packages.%s: %w", p, err)
		}
		if err := logger.ChangePackageLogLevel(p, l); err != nil {
			return err
		}
	}
	return nil
}

// pin returns the named output, or nil when name is empty.
func pin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

// openPanel opens and initializes the ST7789 described by cfg.
func openPanel(cfg config.DisplayConfig) (*st7789.Dev, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, nil, err
	}
	var pins [4]gpio.PinOut
	for i, name := range []string{cfg.DC, cfg.CS, cfg.Reset, cfg.Backlight} {
		if pins[i], err = pin(name); err != nil {
			port.Close()
			return nil, nil, err
		}
	}
	dev, err := st7789.New(port, pins[0], pins[1], pins[2], pins[3], &st7789.Opts{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Rotation:   st7789.Rotation(cfg.Rotation),
		OffsetX:    cfg.OffsetX,
		OffsetY:    cfg.OffsetY,
		BGR:        cfg.BGR,
		Brightness: cfg.Brightness,
		Speed:      physic.Frequency(cfg.SpeedHz) * physic.Hertz,
	})
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	if err := dev.Init(); err != nil {
		port.Close()
		return nil, nil, err
	}
	lg.Infof("using %s", dev)
	closer := func() error {
		err := dev.Halt()
		if err2 := port.Close(); err == nil {
			err = err2
		}
		return err
	}
	return dev, closer, nil
}

// serveWeb starts the MJPEG mirror of the HUD.
func serveWeb(cfg config.HUDConfig, w, h int) (*webview.Sink, func() error, error) {
	f, err := webview.ParseFormat(cfg.WebFormat)
	if err != nil {
		return nil, nil, err
	}
	sink := webview.New(&webview.Opts{Width: w, Height: h, Format: f})
	srv := &http.Server{Addr: cfg.WebAddr, Handler: sink}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorf("web mirror: %s", err)
		}
	}()
	lg.Infof("mirroring to http://%s/", cfg.WebAddr)
	closer := func() error {
		sink.Halt()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return sink, closer, nil
}

func mainImpl() error {
	configPath := flag.String("config", "", "path to the YAML configuration, built-in defaults when empty")
	preview := flag.Bool("preview", false, "draw to the terminal instead of the ST7789")
	purge := flag.Bool("purge", false, "remove every cached icon and exit")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	var cfg *config.Config
	var err error
	if *configPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		return err
	}
	if err := setLogLevels(cfg.Logging); err != nil {
		return err
	}

	img, err := flashfs.OpenImage(cfg.Storage.Image, cfg.Storage.Size, cfg.Storage.BlockSize)
	if err != nil {
		return err
	}
	defer img.Close()
	lfs, err := flashfs.Mount(img, cfg.Storage.FormatIfFailed)
	if err != nil {
		return err
	}
	defer lfs.Unmount()

	cache := iconcache.New(lfs, &iconcache.Opts{
		Dir:  cfg.Storage.IconDir,
		Size: cfg.Icons.Width * cfg.Icons.Height / 8,
	})
	if err := cache.RebuildIndex(); err != nil {
		return err
	}
	if *purge {
		return cache.Purge()
	}

	// Validate already checked both colors.
	active, _ := config.ParseColor(cfg.Icons.Active)
	inactive, _ := config.ParseColor(cfg.Icons.Inactive)
	icons := iconpipe.New(cache, &iconpipe.Opts{
		Width:    cfg.Icons.Width,
		Height:   cfg.Icons.Height,
		Active:   active,
		Inactive: inactive,
		Blank:    inactive,
		Invert:   cfg.Icons.Invert,
	})

	w, h := cfg.Display.Width, cfg.Display.Height
	if r := st7789.Rotation(cfg.Display.Rotation); r == st7789.Rotation90 || r == st7789.Rotation270 {
		w, h = h, w
	}
	var screen hud.Screen
	if *preview {
		t := termsink.New(w, h, nil)
		defer t.Halt()
		screen = t
	} else {
		dev, closer, err := openPanel(cfg.Display)
		if err != nil {
			return err
		}
		defer closer()
		screen = dev
	}

	if cfg.HUD.WebAddr != "" {
		sink, closer, err := serveWeb(cfg.HUD, w, h)
		if err != nil {
			return err
		}
		defer closer()
		screen = hud.Tee(screen, sink)
	}

	layout, err := hud.ParseLayout(cfg.HUD.Layout)
	if err != nil {
		return err
	}
	display, err := hud.New(screen, icons, &hud.Opts{
		Width:     w,
		Height:    h,
		Layout:    layout,
		SpeedUnit: cfg.HUD.SpeedUnit,
	})
	if err != nil {
		return err
	}
	if cfg.HUD.Splash {
		if err := display.Splash(splashPattern); err != nil {
			lg.Errorf("splash: %s", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	if cfg.MQTT.Broker.Host != "" {
		link, err := mqttlink.Connect(cfg.MQTT, display)
		if err != nil {
			// The display is still useful with the last known state.
			lg.Errorf("mqtt: %s", err)
		}
		if link != nil {
			defer link.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lg.Infof("running, %d icons cached", cache.Len())
	if err := display.Run(ctx, cfg.GetTickInterval()); !errors.Is(err, context.Canceled) {
		return err
	}
	lg.Info("exiting")
	return nil
}

func main() {
	err := mainImpl()
	if err != nil {
		lg.Error(err)
	}
	_ = logger.FinalizeLogger()
	if err != nil {
		os.Exit(1)
	}
}
