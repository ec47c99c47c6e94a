package executor

import (
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// Config retrieves the config values used by Executor. If these values are
// constant, NewConstantConfig can be used to create an implementation
// of the interface.
//
// The worker calls Get before collecting every batch, so an implementation
// whose values change at runtime takes effect on the next batch.
type Config interface {
	// Get returns the values for configuration.
	//
	// If the config values may be modified while the executor is running,
	// Get must properly handle concurrency issues.
	Get() ConfigValues
}

// ConfigValues is a struct that contains the Executor config values.
type ConfigValues struct {
	// MaxBatchSize is the maximum number of items handed to the Processor
	// in a single call. Values below 1 are treated as 1, which processes
	// items strictly one at a time.
	MaxBatchSize int `json:"maxBatchSize" envconfig:"MAX_BATCH_SIZE" default:"1"`
}

// LoadConfig populates ConfigValues from environment variables with the
// prefix "BATCHEXEC". Example: BATCHEXEC_MAX_BATCH_SIZE=32 .
func LoadConfig() (ConfigValues, error) {
	var c ConfigValues
	return c, envconfig.Process("BATCHEXEC", &c)
}

// NewConstantConfig returns a Config with constant values. If values
// is nil, the default values are used.
func NewConstantConfig(values *ConfigValues) *ConstantConfig {
	if values == nil {
		return &ConstantConfig{}
	}

	return &ConstantConfig{
		values: *values,
	}
}

// ConstantConfig is a Config with constant values. Create one with
// NewConstantConfig.
type ConstantConfig struct {
	values ConfigValues
}

// Get implements the Config interface.
func (c *ConstantConfig) Get() ConfigValues {
	return c.values
}

// NewDynamicConfig creates a configuration that can be adjusted at runtime.
// It is safe for concurrent use. If values is nil, the default values are
// used.
func NewDynamicConfig(values *ConfigValues) *DynamicConfig {
	if values == nil {
		return &DynamicConfig{}
	}

	return &DynamicConfig{
		maxBatchSize: values.MaxBatchSize,
	}
}

// DynamicConfig implements the Config interface with values that can be
// modified while the executor is running.
type DynamicConfig struct {
	mu           sync.RWMutex
	maxBatchSize int
}

// Get implements the Config interface.
func (c *DynamicConfig) Get() ConfigValues {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConfigValues{
		MaxBatchSize: c.maxBatchSize,
	}
}

// UpdateMaxBatchSize changes the batch size used from the next batch on.
func (c *DynamicConfig) UpdateMaxBatchSize(maxBatchSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxBatchSize = maxBatchSize
}

// Update replaces all configuration values at once.
func (c *DynamicConfig) Update(values ConfigValues) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxBatchSize = values.MaxBatchSize
}

// fixConfig corrects invalid ConfigValues. A MaxBatchSize below 1 becomes 1.
func fixConfig(c ConfigValues) ConfigValues {
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	return c
}
