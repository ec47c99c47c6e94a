// Package embed contains an executor.Processor that computes text
// embeddings with the Ollama batch embedding API. Every batch the executor
// collects becomes a single /api/embed request.
package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"

	"github.com/MasterOfBinary/batchexec/executor"
)

// ErrModelNotFound is returned by Factory when the server does not have the
// configured model.
var ErrModelNotFound = errors.New("embed: model not found")

// Config configures the Ollama client.
type Config struct {
	// BaseURL is the address of the Ollama server.
	BaseURL string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Model is the embedding model to use.
	Model string `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`

	// Timeout bounds a single request.
	Timeout time.Duration `envconfig:"EMBED_TIMEOUT" default:"5m"`

	// Logger receives the HTTP client's own warnings and errors.
	// If nil, they are discarded.
	Logger executor.Logger `ignored:"true"`
}

// LoadConfig populates Config from environment variables with the prefix
// "BATCHEXEC", for example BATCHEXEC_OLLAMA_URL.
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("BATCHEXEC", &c)
}

// Options is passed to every Process call as the executor stream value.
type Options struct {
	// KeepAlive controls how long the server keeps the model loaded after
	// the request, for example "5m". Empty uses the server default.
	KeepAlive string

	// Truncate cuts inputs that exceed the model context length instead of
	// failing the request. Nil uses the server default.
	Truncate *bool
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	Truncate  *bool    `json:"truncate,omitempty"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// restyLogger routes resty client messages to an executor.Logger.
type restyLogger struct {
	logger executor.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.logger.Error(format, v...)
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.logger.Warn(format, v...)
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.logger.Debug(format, v...)
}

// Ollama embeds batches of texts. Create one with New.
type Ollama struct {
	client *resty.Client
	model  string
}

// New creates an Ollama processor for cfg. It does not contact the server.
func New(cfg Config) *Ollama {
	logger := cfg.Logger
	if logger == nil {
		logger = &executor.NoOpLogger{}
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetLogger(restyLogger{logger})

	return &Ollama{client: c, model: cfg.Model}
}

// Process implements the executor.Processor interface. It sends all texts
// in one request and returns one embedding per text, in order.
func (o *Ollama) Process(ctx context.Context, texts []string, opts Options) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embedRequest{
		Model:     o.model,
		Input:     texts,
		Truncate:  opts.Truncate,
		KeepAlive: opts.KeepAlive,
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/api/embed")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode(), resp.String())
	}

	var er embedResponse
	if err := json.Unmarshal(resp.Body(), &er); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([][]float32, len(er.Embeddings))
	for i, emb := range er.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		out[i] = vec
	}

	return out, nil
}

// HasModel reports whether the server lists the configured model.
// A model configured without a tag matches its ":latest" tag.
func (o *Ollama) HasModel(ctx context.Context) (bool, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		Get("/api/tags")
	if err != nil {
		return false, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("ollama status %d: %s", resp.StatusCode(), resp.String())
	}

	var tr tagsResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	want := o.model
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, m := range tr.Models {
		if m.Name == o.model || m.Name == want || m.Model == want {
			return true, nil
		}
	}
	return false, nil
}

// Close releases idle connections. The executor calls it when it stops.
func (o *Ollama) Close() error {
	o.client.GetClient().CloseIdleConnections()
	return nil
}

// Factory returns an executor.Factory that creates an Ollama processor for
// cfg and checks that the server has the model, so Start fails early on a
// misconfigured model.
func Factory(cfg Config) executor.Factory[string, []float32, Options] {
	return func(ctx context.Context) (executor.Processor[string, []float32, Options], error) {
		o := New(cfg)
		ok, err := o.HasModel(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.Model)
		}
		return o, nil
	}
}
