package executor

const (
	// DefaultMaxBatchSize is used when a Config does not specify a positive
	// MaxBatchSize. It processes one item per call.
	DefaultMaxBatchSize = 1

	// TracerName is the instrumentation name of the default tracer.
	TracerName = "github.com/MasterOfBinary/batchexec/executor"
)
