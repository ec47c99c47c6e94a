package executor_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/batchexec/executor"
)

func TestNewConstantConfig(t *testing.T) {
	assert.Equal(t, executor.ConfigValues{}, executor.NewConstantConfig(nil).Get())

	values := &executor.ConfigValues{MaxBatchSize: 12}
	c := executor.NewConstantConfig(values)
	values.MaxBatchSize = 99
	assert.Equal(t, 12, c.Get().MaxBatchSize)
}

func TestDynamicConfig(t *testing.T) {
	c := executor.NewDynamicConfig(nil)
	assert.Zero(t, c.Get().MaxBatchSize)

	c.UpdateMaxBatchSize(4)
	assert.Equal(t, 4, c.Get().MaxBatchSize)

	c.Update(executor.ConfigValues{MaxBatchSize: 7})
	assert.Equal(t, 7, c.Get().MaxBatchSize)
}

func TestDynamicConfig_Concurrent(t *testing.T) {
	c := executor.NewDynamicConfig(&executor.ConfigValues{MaxBatchSize: 1})

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.UpdateMaxBatchSize(n)
		}(i)
		go func() {
			defer wg.Done()
			v := c.Get().MaxBatchSize
			assert.True(t, v >= 1 && v <= 10)
		}()
	}
	wg.Wait()
}

func TestLoadConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		c, err := executor.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, executor.DefaultMaxBatchSize, c.MaxBatchSize)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("BATCHEXEC_MAX_BATCH_SIZE", "32")
		c, err := executor.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 32, c.MaxBatchSize)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("BATCHEXEC_MAX_BATCH_SIZE", "lots")
		_, err := executor.LoadConfig()
		assert.Error(t, err)
	})
}
