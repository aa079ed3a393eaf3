package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/costlab/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for costlab.
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	GCP     GCPConfig
	AI      AIConfig
	Pricing PricingConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// Debug exposes raw provider errors alongside the human-readable message.
	Debug              bool
	RateLimitPerMinute int
}

// RedisConfig is optional. An empty URL selects the in-memory cache.
type RedisConfig struct {
	URL string
}

type GCPConfig struct {
	ProjectID       string
	CredentialsFile string
	DryRunCacheTTL  time.Duration
}

type AIConfig struct {
	Provider          string
	Timeout           time.Duration
	MaxAttempts       int
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Gemini            GeminiConfig
	OpenAI            OpenAIConfig
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type SessionConfig struct {
	TTL time.Duration
}

// PricingConfig holds the fixed rate tables used by the cost formulas.
type PricingConfig struct {
	BigQueryCostPerTB float64            `yaml:"bigquery_cost_per_tb" json:"bigquery_cost_per_tb"`
	StorageClassRates map[string]float64 `yaml:"storage_class_rates"  json:"storage_class_rates"`
	AcceleratorRates  map[string]float64 `yaml:"accelerator_rates"    json:"accelerator_rates"`
	SpotDiscount      float64            `yaml:"spot_discount"        json:"spot_discount"`
}

// TierRate returns the monthly per-GB rate for a storage class. Unknown
// classes are priced as STANDARD.
func (p PricingConfig) TierRate(class string) float64 {
	if r, ok := p.StorageClassRates[strings.ToUpper(class)]; ok {
		return r
	}
	return p.StorageClassRates[models.StorageClassStandard]
}

// AcceleratorRate returns the hourly rate for an accelerator type.
func (p PricingConfig) AcceleratorRate(accelerator string) (float64, bool) {
	r, ok := p.AcceleratorRates[strings.ToUpper(accelerator)]
	return r, ok
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var validProviders = map[string]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
}

// DefaultDatasets is the catalogue of public tables offered to the SQL workflow.
var DefaultDatasets = []models.Dataset{
	{
		Name:        "Google Analytics E-commerce",
		Dataset:     "bigquery-public-data.google_analytics_sample",
		Table:       "ga_sessions_20170801",
		Description: "Google Analytics 360 e-commerce data with transactions, products, and user behavior",
	},
	{
		Name:        "TheLook E-commerce",
		Dataset:     "bigquery-public-data.thelook_ecommerce",
		Table:       "orders",
		Description: "Synthetic e-commerce dataset with orders, products, users, and inventory",
	},
	{
		Name:        "TheLook E-commerce Products",
		Dataset:     "bigquery-public-data.thelook_ecommerce",
		Table:       "products",
		Description: "Product catalog with categories, brands, pricing, and inventory levels",
	},
	{
		Name:        "TheLook E-commerce Users",
		Dataset:     "bigquery-public-data.thelook_ecommerce",
		Table:       "users",
		Description: "Customer demographics and registration data",
	},
}

// DefaultPricing returns the built-in rate tables.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		BigQueryCostPerTB: 50.0,
		StorageClassRates: map[string]float64{
			models.StorageClassStandard: 0.020,
			models.StorageClassNearline: 0.010,
			models.StorageClassColdline: 0.004,
			models.StorageClassArchive:  0.0012,
		},
		AcceleratorRates: map[string]float64{
			"T4":     0.35,
			"V100":   2.48,
			"A100":   3.67,
			"TPU":    4.50,
			"TPU_V2": 4.50,
			"TPU_V3": 8.00,
		},
		SpotDiscount: 0.70,
	}
}

// ValidationError lists every configuration problem found.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads configuration from environment variables. It only fails when the
// optional pricing file cannot be read; missing credentials are reported by
// Validate so callers can surface them before any provider call.
func Load() (*Config, error) {
	pricing := DefaultPricing()
	pricing.BigQueryCostPerTB = envFloat("BIGQUERY_COST_PER_TB", pricing.BigQueryCostPerTB)
	for _, class := range []string{models.StorageClassStandard, models.StorageClassNearline, models.StorageClassColdline, models.StorageClassArchive} {
		pricing.StorageClassRates[class] = envFloat("GCS_"+class+"_COST_PER_GB", pricing.StorageClassRates[class])
	}
	for acc, rate := range pricing.AcceleratorRates {
		pricing.AcceleratorRates[acc] = envFloat("ACCELERATOR_"+acc+"_COST_PER_HOUR", rate)
	}
	pricing.SpotDiscount = envFloat("SPOT_VM_DISCOUNT", pricing.SpotDiscount)

	if path := os.Getenv("PRICING_FILE"); path != "" {
		if err := loadPricingFile(path, &pricing); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("COSTLAB_PORT", 8080),
			Env:                envString("COSTLAB_ENV", "development"),
			Debug:              envBool("COSTLAB_DEBUG", false),
			RateLimitPerMinute: envInt("COSTLAB_RATE_LIMIT_PER_MINUTE", 60),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		GCP: GCPConfig{
			ProjectID:       os.Getenv("GCP_PROJECT_ID"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			DryRunCacheTTL:  envDuration("DRY_RUN_CACHE_TTL", time.Hour),
		},
		AI: AIConfig{
			Provider:          envString("AI_PROVIDER", ProviderGemini),
			Timeout:           envDurationSecs("AI_TIMEOUT_SECS", 60*time.Second),
			MaxAttempts:       envInt("LLM_MAX_ATTEMPTS", 3),
			CacheTTL:          envDuration("LLM_CACHE_TTL", time.Hour),
			RequestsPerSecond: envFloat("LLM_REQUESTS_PER_SECOND", 0),
			Gemini: GeminiConfig{
				APIKey:  os.Getenv("GEMINI_API_KEY"),
				Model:   envString("GEMINI_MODEL", "gemini-2.5-flash"),
				BaseURL: envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com"),
			},
		},
		Pricing: pricing,
		Session: SessionConfig{
			TTL: envDuration("SESSION_TTL", 24*time.Hour),
		},
	}

	return cfg, nil
}

// Validate returns one human-readable message per configuration problem.
// An empty result means every provider can be constructed.
func (c *Config) Validate() []string {
	var problems []string

	if c.GCP.ProjectID == "" {
		problems = append(problems, "GCP_PROJECT_ID is not set")
	}
	if c.AI.Provider == ProviderGemini && c.AI.Gemini.APIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is required when using Gemini provider")
	}
	if c.AI.Provider == ProviderOpenAI && c.AI.OpenAI.APIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is required when using OpenAI provider")
	}
	if !validProviders[c.AI.Provider] {
		problems = append(problems, "AI_PROVIDER must be either 'gemini' or 'openai'")
	}

	return problems
}

// Err wraps Validate in a *ValidationError, or returns nil when valid.
func (c *Config) Err() error {
	if problems := c.Validate(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsDevelopment reports whether raw error details may be shown to users.
func (c *Config) IsDevelopment() bool {
	return c.Server.Debug || c.Server.Env == "development"
}

// loadPricingFile overlays non-zero values from a YAML file onto p.
func loadPricingFile(path string, p *PricingConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pricing file: %w", err)
	}

	var override PricingConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing pricing file %s: %w", path, err)
	}

	if override.BigQueryCostPerTB > 0 {
		p.BigQueryCostPerTB = override.BigQueryCostPerTB
	}
	for class, rate := range override.StorageClassRates {
		p.StorageClassRates[strings.ToUpper(class)] = rate
	}
	for acc, rate := range override.AcceleratorRates {
		p.AcceleratorRates[strings.ToUpper(acc)] = rate
	}
	if override.SpotDiscount > 0 {
		p.SpotDiscount = override.SpotDiscount
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
