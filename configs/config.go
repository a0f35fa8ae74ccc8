package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	Checkout struct {
		TaxRate      float64       `koanf:"tax_rate"`      // e.g. 0.05
		Tolerance    float64       `koanf:"tolerance"`     // flag when discrepancy exceeds this
		VarianceBand float64       `koanf:"variance_band"` // simulated scale drift, e.g. 0.10
		CheckDelay   time.Duration `koanf:"check_delay"`   // simulated hardware weigh time
		SettleDelay  time.Duration `koanf:"settle_delay"`  // simulated payment settlement time
	} `koanf:"checkout"`

	Fulfillment struct {
		PreparingDwell time.Duration `koanf:"preparing_dwell"`
		PickedUpDwell  time.Duration `koanf:"picked_up_dwell"`
		InTransitDwell time.Duration `koanf:"in_transit_dwell"`
		TickInterval   time.Duration `koanf:"tick_interval"`
	} `koanf:"fulfillment"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	ExitPass struct {
		Secret string        `koanf:"secret"`
		TTL    time.Duration `koanf:"ttl"` // how long an issued pass stays scannable
	} `koanf:"exit_pass"`

	Rabbit struct {
		URL       string `koanf:"url"`
		Exchange  string `koanf:"exchange"`
		ScanQueue string `koanf:"scan_queue"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers    []string `koanf:"brokers"`
		TopicAudit string   `koanf:"topic_audit"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix SWIFTCART_, nested with __)
	// e.g. SWIFTCART_REDIS__ADDR, SWIFTCART_EXIT_PASS__SECRET
	if err := k.Load(env.Provider("SWIFTCART_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SWIFTCART_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Checkout.TaxRate < 0 || c.Checkout.TaxRate >= 1 {
		return fmt.Errorf("checkout.tax_rate must be in [0,1)")
	}
	if c.Checkout.Tolerance <= 0 {
		return fmt.Errorf("checkout.tolerance must be positive")
	}
	if c.Checkout.VarianceBand <= 0 || c.Checkout.VarianceBand >= 1 {
		return fmt.Errorf("checkout.variance_band must be in (0,1)")
	}
	if c.Fulfillment.PreparingDwell <= 0 || c.Fulfillment.PickedUpDwell <= 0 || c.Fulfillment.InTransitDwell <= 0 {
		return fmt.Errorf("fulfillment dwell durations must be positive")
	}
	if c.Fulfillment.TickInterval <= 0 {
		return fmt.Errorf("fulfillment.tick_interval must be positive")
	}
	if c.ExitPass.Secret == "" {
		return fmt.Errorf("exit_pass.secret required")
	}
	return nil
}
