// Command pelarboj drives an RGB lamp: it renders effects to PWM, reads the
// push button and takes commands from an MQTT coordinator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/nkey/pelarboj/internal/app"
	"github.com/nkey/pelarboj/internal/button"
	"github.com/nkey/pelarboj/internal/config"
	"github.com/nkey/pelarboj/internal/effect"
	"github.com/nkey/pelarboj/internal/gpio"
	"github.com/nkey/pelarboj/internal/light"
	"github.com/nkey/pelarboj/internal/mqtt"
	"github.com/nkey/pelarboj/internal/pwm"
	"github.com/nkey/pelarboj/internal/status"
	"github.com/nkey/pelarboj/internal/web"
)

const defaultConfigPath = "/etc/pelarboj/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to YAML config (missing default file means built-in defaults)")
	printState := flag.Bool("print-state", false, "Print the button state and exit")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		setupLogging("info", false, false)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	setupLogging(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Colors)

	if err := run(cfg, *printState); err != nil {
		log.Fatal().Err(err).Msg("Fatal error")
	}
}

// loadConfig reads the config file. The default path may be absent.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func setupLogging(level string, useJSON bool, colors bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func run(cfg *config.Config, printState bool) error {
	input, err := gpio.NewRealReader(cfg.Button.Chip, cfg.Button.Pins...)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer input.Close()

	if printState {
		pressed, err := input.Read()
		if err != nil {
			return fmt.Errorf("read button: %w", err)
		}
		fmt.Printf("Button: %s\n", pressedString(pressed))
		return nil
	}

	sink, err := pwm.NewPinSink(cfg.LED.Red, cfg.LED.Green, cfg.LED.Blue, cfg.LED.Bits,
		physic.Frequency(cfg.LED.Frequency)*physic.Hertz)
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer sink.Close()

	client := mqtt.NewClient(mqtt.Options{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		BufferSize:     cfg.MQTT.BufferSize,
		ConnectRetry:   cfg.MQTT.ConnectRetry.Duration(),
		PublishTimeout: cfg.MQTT.PublishTimeout.Duration(),
	})
	defer client.Close()

	httpAddr := cfg.HTTP.Addr
	if cfg.HTTP.Disabled {
		httpAddr = ""
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		LEDPeriodMs:     cfg.LED.Period.Duration().Milliseconds(),
		ButtonPeriodMs:  cfg.Button.Period.Duration().Milliseconds(),
		FrameTimeoutMs:  cfg.Lock.FrameTimeout.Duration().Milliseconds(),
		ActionTimeoutMs: cfg.Lock.ActionTimeout.Duration().Milliseconds(),
		HeartbeatMs:     cfg.Heartbeat.Duration().Milliseconds(),
		PWMBits:         cfg.LED.Bits,
		Broker:          cfg.MQTT.Broker,
		HTTPAddr:        httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	record := light.NewRecord(engine, initialTarget(cfg), cfg.InitialEffect(), time.Now())

	ctrl := app.New(app.Deps{
		Record:     record,
		Sink:       sink,
		Input:      input,
		Publisher:  client,
		Connection: client,
		Resetter:   client,
		Restart: func() error {
			sink.Write(pwm.Output{})
			return restartSelf()
		},
		Tracker: tracker,
	}, controllerOptions(cfg))
	client.Start(ctrl)

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := client.PublishSystem(startup); err != nil {
		log.Warn().Err(err).Msg("Failed to publish startup event")
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, cfg.HTTP.StreamInterval.Duration())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("HTTP server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info().Str("addr", httpAddr).Msg("HTTP status server listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl.Startup(ctx)

	ledTicker := time.NewTicker(cfg.LED.Period.Duration())
	defer ledTicker.Stop()
	buttonTicker := time.NewTicker(cfg.Button.Period.Duration())
	defer buttonTicker.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ctrl.RunLEDLoop(ctx, ledTicker.C)
	}()
	go func() {
		defer wg.Done()
		ctrl.RunButtonLoop(ctx, buttonTicker.C)
	}()

	var heartbeat <-chan time.Time
	if hb := cfg.Heartbeat.Duration(); hb > 0 {
		t := time.NewTicker(hb)
		defer t.Stop()
		heartbeat = t.C
	}

	log.Info().
		Dur("led_period", cfg.LED.Period.Duration()).
		Dur("button_period", cfg.Button.Period.Duration()).
		Str("broker", cfg.MQTT.Broker).
		Stringer("effect", cfg.InitialEffect()).
		Msg("Started")

	err = runLoop(client, client, tracker, time.Now, heartbeat, sigCh)

	cancel()
	wg.Wait()
	sink.Write(pwm.Output{})
	return err
}

// runLoop publishes heartbeats until a signal arrives, then publishes the
// shutdown event.
func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Info().Stringer("signal", s).Msg("Shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     mqtt.EventShutdown,
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
					tracker.SetMQTTBuffered(mqttStatus.Buffered())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), mqtt.EventShutdown, signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("Failed to publish shutdown event")
			}
			return nil

		case <-heartbeat:
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     mqtt.EventHeartbeat,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
					tracker.SetMQTTBuffered(mqttStatus.Buffered())
				}
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				log.Debug().
					Dur("uptime", snap.Uptime()).
					Uint64("skipped_frames", snap.Counters.SkippedFrames).
					Uint64("dropped_actions", snap.Counters.DroppedActions).
					Msg("Heartbeat")
				event.RawPayload = status.FormatStatusEvent(snap, mqtt.EventHeartbeat, "")
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("Heartbeat publish failed")
			}
		}
	}
}

func newEngine(cfg *config.Config) (*effect.Engine, error) {
	var opts []effect.Option
	pool, err := cfg.AutoCycleEffects()
	if err != nil {
		return nil, err
	}
	if pool != nil {
		opts = append(opts, effect.WithAutoCycleEffects(pool...))
	}
	var rng *rand.Rand
	if seed := cfg.Effects.Seed; seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return effect.NewEngine(rng, opts...), nil
}

func initialTarget(cfg *config.Config) light.Target {
	return light.Target{
		On:    cfg.Startup.On,
		R:     uint8(cfg.Startup.Color[0]),
		G:     uint8(cfg.Startup.Color[1]),
		B:     uint8(cfg.Startup.Color[2]),
		Level: uint8(*cfg.Startup.Brightness),
	}
}

func controllerOptions(cfg *config.Config) app.Options {
	return app.Options{
		FrameTimeout:  cfg.Lock.FrameTimeout.Duration(),
		ActionTimeout: cfg.Lock.ActionTimeout.Duration(),
		Bits:          cfg.LED.Bits,
		Button: button.Config{
			Debounce:        cfg.Button.Debounce.Duration(),
			DoubleTapWindow: cfg.Button.DoubleTap.Duration(),
			LongPress:       cfg.Button.LongPress.Duration(),
		},
		ConfirmWindow: cfg.Button.ConfirmWindow.Duration(),
		ConfirmPoll:   cfg.Button.ConfirmPoll.Duration(),
		SkipSelfTest:  cfg.Startup.SkipSelfTest,
		ConnectWait:   cfg.Startup.ConnectWait.Duration(),
		ConnectStep:   cfg.Startup.ConnectStep.Duration(),
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
