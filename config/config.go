package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PLCURL                string
	PLCNodePrefix         string
	PLCRequestTimeout     time.Duration
	PLCReconnectCooldown  time.Duration
	PLCMisconfigThreshold int

	PollInterval time.Duration
	ErrorPause   time.Duration

	CamIndex         int
	CamReopenBackoff time.Duration
	CamFrameInterval time.Duration
	JPEGQuality      int

	Classifier          string
	BrightnessThreshold float64

	HTTPAddr string

	LogLevel string
	LogFile  string

	TelegramToken string
}

const (
	ClassifierBrightness = "brightness"
	ClassifierGoCV       = "gocv"
)

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		PLCURL:                p.str("PLC_URL", "opc.tcp://172.16.3.186:4840"),
		PLCNodePrefix:         p.str("PLC_NODE_PREFIX", "ns=4;s=|var|PLC210 OPC-UA.Application.TargetVars."),
		PLCRequestTimeout:     p.duration("PLC_REQUEST_TIMEOUT", 2*time.Second),
		PLCReconnectCooldown:  p.duration("PLC_RECONNECT_COOLDOWN", 3*time.Second),
		PLCMisconfigThreshold: p.integer("PLC_MISCONFIG_THRESHOLD", 10),

		PollInterval: p.duration("POLL_INTERVAL", 50*time.Millisecond),
		ErrorPause:   p.duration("ERROR_PAUSE", time.Second),

		CamIndex:         p.integer("CAM_INDEX", 0),
		CamReopenBackoff: p.duration("CAM_REOPEN_BACKOFF", 3*time.Second),
		CamFrameInterval: p.duration("CAM_FRAME_INTERVAL", 100*time.Millisecond),
		JPEGQuality:      p.integer("JPEG_QUALITY", 80),

		Classifier:          strings.ToLower(p.str("CLASSIFIER", ClassifierBrightness)),
		BrightnessThreshold: p.float("BRIGHTNESS_THRESHOLD", 100),

		HTTPAddr: p.str("HTTP_ADDR", ":8000"),

		LogLevel: p.str("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, которые иначе проявились бы только как «ПЛК недоступен».
func (c *Config) Validate() error {
	var errs []error

	if !strings.HasPrefix(c.PLCURL, "opc.tcp://") || len(c.PLCURL) == len("opc.tcp://") {
		errs = append(errs, fmt.Errorf("PLC_URL must look like opc.tcp://host:port, got %q", c.PLCURL))
	}
	if c.PLCNodePrefix == "" {
		errs = append(errs, errors.New("PLC_NODE_PREFIX is required"))
	} else if !validNodePrefix(c.PLCNodePrefix) {
		errs = append(errs, fmt.Errorf("PLC_NODE_PREFIX must look like ns=<index>;s=<path>, got %q", c.PLCNodePrefix))
	}
	for name, d := range map[string]time.Duration{
		"PLC_REQUEST_TIMEOUT":    c.PLCRequestTimeout,
		"PLC_RECONNECT_COOLDOWN": c.PLCReconnectCooldown,
		"POLL_INTERVAL":          c.PollInterval,
		"ERROR_PAUSE":            c.ErrorPause,
		"CAM_REOPEN_BACKOFF":     c.CamReopenBackoff,
		"CAM_FRAME_INTERVAL":     c.CamFrameInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.PLCMisconfigThreshold <= 0 {
		errs = append(errs, fmt.Errorf("PLC_MISCONFIG_THRESHOLD must be positive, got %d", c.PLCMisconfigThreshold))
	}
	if c.CamIndex < 0 {
		errs = append(errs, fmt.Errorf("CAM_INDEX must not be negative, got %d", c.CamIndex))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality))
	}
	if c.Classifier != ClassifierBrightness && c.Classifier != ClassifierGoCV {
		errs = append(errs, fmt.Errorf("CLASSIFIER must be %q or %q, got %q", ClassifierBrightness, ClassifierGoCV, c.Classifier))
	}
	if c.BrightnessThreshold <= 0 || c.BrightnessThreshold >= 255 {
		errs = append(errs, fmt.Errorf("BRIGHTNESS_THRESHOLD must be in (0, 255), got %v", c.BrightnessThreshold))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}

	return errors.Join(errs...)
}

// validNodePrefix префикс должен содержать пространство имён и тип идентификатора
func validNodePrefix(prefix string) bool {
	ns, id, ok := strings.Cut(prefix, ";")
	if !ok || !strings.HasPrefix(ns, "ns=") || len(ns) == len("ns=") {
		return false
	}
	kind, _, ok := strings.Cut(id, "=")
	return ok && (kind == "i" || kind == "s" || kind == "g" || kind == "b")
}

// parser читает переменные окружения и копит ошибки разбора.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}
