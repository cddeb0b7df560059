package config

import (
	"time"

	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/validation"
)

// FlowConfig is the configuration of a process that runs pipeline jobs.
type FlowConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Telemetry     TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// PipelineConfig holds the tunables of pipe decorators and paged reads.
type PipelineConfig struct {
	// Parallelism is the default worker count of threaded and parallel pipes.
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism" validate:"gte=1,lte=1024"`
	// QueueCapacity bounds the shared queue of a threaded pipe. Zero means
	// one slot per worker.
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gte=0"`
	// PollInterval is the default interval of polling pipes.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
	// ReadPageSize is the window size of paged reads.
	ReadPageSize int `yaml:"read_page_size" mapstructure:"read_page_size" validate:"gte=1"`
	// ReadRetry controls re-reading a window that failed.
	ReadRetry resilience.RetryConfig `yaml:"read_retry" mapstructure:"read_retry"`
}

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills empty fields of every section.
func (c *FlowConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks the service fields, then every section's struct tags.
func (c *FlowConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// ApplyDefaults fills empty pipeline tunables.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = 4
	}
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.ReadPageSize == 0 {
		c.ReadPageSize = 100
	}
	if c.ReadRetry.MaxAttempts == 0 {
		c.ReadRetry = resilience.NoRetry()
	}
}

// EffectiveQueueCapacity returns QueueCapacity, or Parallelism when unset.
func (c *PipelineConfig) EffectiveQueueCapacity() int {
	if c.QueueCapacity > 0 {
		return c.QueueCapacity
	}
	return c.Parallelism
}

// ApplyDefaults fills empty telemetry fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" && c.Enabled {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// TracerConfig converts the section for observability.InitTracer.
func (c *FlowConfig) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}

// MeterConfig converts the section for observability.InitMeter.
func (c *FlowConfig) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		Interval:       c.Telemetry.MetricInterval,
	}
}
