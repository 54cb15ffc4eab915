package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"plc-vision/config"
	"plc-vision/internal/api/telegram"
	"plc-vision/internal/api/web"
	app "plc-vision/internal/application"
	"plc-vision/internal/container"
	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
	"plc-vision/internal/infrastructure/opcua"
	"plc-vision/internal/infrastructure/vision"
	"plc-vision/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, closer, err := logger.New(cfg.LogLevel, cfg.LogFile, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()

	bindings := entity.DefaultBindings(cfg.PLCNodePrefix)
	for _, b := range bindings {
		if err := opcua.ValidateLocator(b.Locator); err != nil {
			log.Fatalf("Invalid PLC node for %s: %v", b.Name, err)
		}
	}

	var classifier port.Classifier = vision.NewBrightnessClassifier(cfg.BrightnessThreshold)
	if cfg.Classifier == config.ClassifierGoCV {
		classifier = vision.NewGoCVClassifier(cfg.BrightnessThreshold)
	}

	// Собираем станцию
	station := container.New(
		opcua.NewDialer(cfg.PLCRequestTimeout),
		vision.NewCameraOpener(cfg.JPEGQuality),
		classifier,
		container.Options{
			Store: app.StoreConfig{
				Endpoint:           cfg.PLCURL,
				Bindings:           bindings,
				Cooldown:           cfg.PLCReconnectCooldown,
				MisconfigThreshold: cfg.PLCMisconfigThreshold,
			},
			Control: app.ControlConfig{
				PollInterval: cfg.PollInterval,
				ErrorPause:   cfg.ErrorPause,
			},
			Capture: app.CaptureConfig{
				Index:         cfg.CamIndex,
				ReopenBackoff: cfg.CamReopenBackoff,
				FrameInterval: cfg.CamFrameInterval,
			},
			History: 100,
		},
		logg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Внешние интерфейсы необязательны: их ошибка не останавливает станцию
	optional := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(ctx); err != nil {
				logg.Error("task stopped with error", "task", name, "error", err)
			}
			return nil
		})
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, station.Operators, station.Station, logg)
		if err != nil {
			logg.Error("telegram bot disabled", "error", err)
		} else {
			station.Variables.AddObserver(bot)
			optional("telegram", bot.Run)
		}
	}

	optional("web", web.NewServer(cfg.HTTPAddr, station.Station, logg).Run)
	g.Go(func() error { return station.Capture.Run(ctx) })
	g.Go(func() error { return station.Control.Run(ctx) })

	logg.Info("station started, press Ctrl+C to stop", "plc", cfg.PLCURL, "http", cfg.HTTPAddr)
	<-ctx.Done()
	logg.Info("stopping")

	if err := g.Wait(); err != nil {
		logg.Error("station stopped with error", "error", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	station.Variables.Close(closeCtx)
}
