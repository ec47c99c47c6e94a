package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/MasterOfBinary/batchexec/executor"
)

// RedisPipeline provides a synchronous API for batched Redis operations. It
// allows callers to make simple calls while batching happens transparently
// in the background: every batch is sent as a single Redis pipeline.
//
// Example usage:
//
//	redisPipeline := pipeline.NewRedisPipeline(redisClient, nil)
//	if err := redisPipeline.Start(ctx); err != nil {
//		return err
//	}
//	defer redisPipeline.Stop()
//	value, err := redisPipeline.Get(ctx, "my-key")
type RedisPipeline struct {
	client  redis.Cmdable
	options RedisPipelineOptions
	ex      *executor.Executor[*redisRequest, redisResponse, struct{}]

	// Tracks whether the pipeline has been started.
	started bool
	// Guards access to started flag and allows safe concurrent calls.
	mu sync.Mutex
}

// RedisOperation represents the type of Redis operation to perform.
type RedisOperation string

const (
	// Get retrieves a value for a key.
	Get RedisOperation = "GET"
	// Set stores a key-value pair.
	Set RedisOperation = "SET"
	// Del deletes a key.
	Del RedisOperation = "DEL"
	// Exists checks if a key exists.
	Exists RedisOperation = "EXISTS"
)

// redisRequest represents a request to perform a Redis operation.
type redisRequest struct {
	op    RedisOperation
	key   string
	value interface{}
	ttl   time.Duration
}

// redisResponse represents the response from a Redis operation.
type redisResponse struct {
	value interface{}
	err   error
}

// RedisPipelineOptions provides configuration options for the RedisPipeline.
type RedisPipelineOptions struct {
	// MaxBatchSize is the maximum number of commands sent in one pipeline.
	MaxBatchSize int
	// Logger receives the executor's log messages. If nil, nothing is logged.
	Logger executor.Logger
	// Stats receives the executor's statistics. If nil, none are collected.
	Stats executor.StatsCollector
}

// DefaultRedisPipelineOptions returns sensible default options for a RedisPipeline.
func DefaultRedisPipelineOptions() *RedisPipelineOptions {
	return &RedisPipelineOptions{
		MaxBatchSize: 100,
	}
}

// NewRedisPipeline creates a new RedisPipeline with the given Redis client and options.
func NewRedisPipeline(client redis.Cmdable, options *RedisPipelineOptions) *RedisPipeline {
	if options == nil {
		options = DefaultRedisPipelineOptions()
	}

	return &RedisPipeline{
		client:  client,
		options: *options,
		ex: executor.New[*redisRequest, redisResponse, struct{}]().
			WithLogger(options.Logger).
			WithStats(options.Stats),
	}
}

// Start begins the background batch processing. This must be called before
// any operations can be performed.
func (p *RedisPipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pipeline already started")
	}

	err := p.ex.Start(ctx, func(ctx context.Context) (executor.Processor[*redisRequest, redisResponse, struct{}], error) {
		if err := p.client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return executor.ProcessorFunc[*redisRequest, redisResponse, struct{}](p.process), nil
	}, &executor.StartOptions[struct{}]{
		Config: executor.NewConstantConfig(&executor.ConfigValues{MaxBatchSize: p.options.MaxBatchSize}),
	})
	if err != nil {
		return err
	}

	p.started = true
	return nil
}

// Stop shuts down the pipeline. A batch already sent is allowed to
// complete; operations still queued fail with ErrNotRunning.
func (p *RedisPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return errors.New("pipeline not started")
	}

	p.ex.Stop()
	p.started = false
	return nil
}

// process sends a batch of requests as one Redis pipeline.
func (p *RedisPipeline) process(ctx context.Context, reqs []*redisRequest, _ struct{}) ([]redisResponse, error) {
	pipe := p.client.Pipeline()
	cmds := make([]redis.Cmder, len(reqs))

	for i, req := range reqs {
		switch req.op {
		case Get:
			cmds[i] = pipe.Get(ctx, req.key)
		case Set:
			cmds[i] = pipe.Set(ctx, req.key, req.value, req.ttl)
		case Del:
			cmds[i] = pipe.Del(ctx, req.key)
		case Exists:
			cmds[i] = pipe.Exists(ctx, req.key)
		}
	}

	// Exec reports the first failed command; each command carries its own error.
	_, _ = pipe.Exec(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]redisResponse, len(reqs))
	for i, cmd := range cmds {
		if cmd == nil {
			results[i].err = fmt.Errorf("unsupported operation %q", reqs[i].op)
			continue
		}

		switch c := cmd.(type) {
		case *redis.StringCmd:
			results[i].value, results[i].err = c.Result()
		case *redis.StatusCmd:
			results[i].value, results[i].err = c.Result()
		case *redis.IntCmd:
			results[i].value, results[i].err = c.Result()
		default:
			results[i].err = cmd.Err()
		}
	}

	return results, nil
}

func (p *RedisPipeline) do(ctx context.Context, req *redisRequest) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := await(ctx, p.ex.Submit(req))
	if err != nil {
		return nil, err
	}
	return resp.value, resp.err
}

// Get retrieves the value for a key. It returns redis.Nil if the key does
// not exist.
func (p *RedisPipeline) Get(ctx context.Context, key string) (string, error) {
	v, err := p.do(ctx, &redisRequest{op: Get, key: key})
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Set stores a key-value pair. A ttl of zero means the key does not expire.
func (p *RedisPipeline) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	_, err := p.do(ctx, &redisRequest{op: Set, key: key, value: value, ttl: ttl})
	return err
}

// Del deletes a key. It returns the number of keys deleted and any error.
func (p *RedisPipeline) Del(ctx context.Context, key string) (int64, error) {
	v, err := p.do(ctx, &redisRequest{op: Del, key: key})
	if err != nil {
		return 0, err
	}
	if val, ok := v.(int64); ok {
		return val, nil
	}
	return 0, errors.New("invalid response type")
}

// Exists checks if a key exists. It returns a boolean and any error.
func (p *RedisPipeline) Exists(ctx context.Context, key string) (bool, error) {
	v, err := p.do(ctx, &redisRequest{op: Exists, key: key})
	if err != nil {
		return false, err
	}
	if val, ok := v.(int64); ok {
		return val > 0, nil
	}
	return false, errors.New("invalid response type")
}
