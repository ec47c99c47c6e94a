package processor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/batchexec/executor"
	"github.com/MasterOfBinary/batchexec/processor"
)

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureLogger) Log(level executor.LogLevel, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	c.messages = append(c.messages, level.String()+" "+msg)
}
func (c *captureLogger) Debug(format string, args ...interface{}) {
	c.Log(executor.LogLevelDebug, format, args...)
}
func (c *captureLogger) Info(format string, args ...interface{}) {
	c.Log(executor.LogLevelInfo, format, args...)
}
func (c *captureLogger) Warn(format string, args ...interface{}) {
	c.Log(executor.LogLevelWarn, format, args...)
}
func (c *captureLogger) Error(format string, args ...interface{}) {
	c.Log(executor.LogLevelError, format, args...)
}

func (c *captureLogger) getMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, len(c.messages))
	copy(result, c.messages)
	return result
}

func (c *captureLogger) contains(prefix, substr string) bool {
	for _, m := range c.getMessages() {
		if strings.HasPrefix(m, prefix) && strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type closeTracker struct {
	executor.ProcessorFunc[int, int, struct{}]
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestLoggingProcessor_Success(t *testing.T) {
	logger := &captureLogger{}
	p := processor.WrapWithLogging[int, int, struct{}](processor.Map(double), logger, "Doubler")

	out, err := p.Process(context.Background(), []int{1, 2, 3}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)

	assert.True(t, logger.contains("DEBUG", "Processor 'Doubler' starting with 3 inputs"))
	assert.True(t, logger.contains("DEBUG", "3 results"))
}

func TestLoggingProcessor_Error(t *testing.T) {
	logger := &captureLogger{}
	procErr := errors.New("out of memory")
	p := processor.WrapWithLogging[int, int, struct{}](&processor.Error[int, int, struct{}]{Err: procErr}, logger, "")

	_, err := p.Process(context.Background(), []int{1}, struct{}{})
	assert.ErrorIs(t, err, procErr)
	assert.True(t, logger.contains("ERROR", "out of memory"))
	assert.True(t, logger.contains("DEBUG", "processor.Error"))
}

func TestLoggingProcessor_UnderProduction(t *testing.T) {
	logger := &captureLogger{}
	p := processor.WrapWithLogging[int, int, struct{}](processor.Map(failOn(2)), logger, "half")

	out, err := p.Process(context.Background(), []int{1, 2}, struct{}{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.True(t, logger.contains("WARN", "1 of 2 results produced"))
}

func TestLoggingProcessor_NilLogger(t *testing.T) {
	p := &processor.LoggingProcessor[int, int, struct{}]{Processor: processor.Map(double)}
	out, err := p.Process(context.Background(), []int{5}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{10}, out)
}

func TestLoggingProcessor_ForwardsClose(t *testing.T) {
	inner := &closeTracker{ProcessorFunc: processor.Map(double)}
	p := processor.WrapWithLogging[int, int, struct{}](inner, nil, "")

	require.NoError(t, p.Close())
	assert.True(t, inner.closed)

	plain := processor.WrapWithLogging[int, int, struct{}](processor.Map(double), nil, "")
	assert.NoError(t, plain.Close())
}

func TestLoggingProcessor_InExecutor(t *testing.T) {
	logger := &captureLogger{}
	inner := &closeTracker{ProcessorFunc: processor.Map(double)}

	ex := executor.New[int, int, struct{}]()
	err := ex.Start(context.Background(), func(context.Context) (executor.Processor[int, int, struct{}], error) {
		return processor.WrapWithLogging[int, int, struct{}](inner, logger, "model"), nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, ex.Submit(4).Wait())
	ex.Stop()

	assert.True(t, inner.closed)
	assert.True(t, logger.contains("DEBUG", "Processor 'model' starting with 1 inputs"))
}
