package flowgraph

import (
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// InvalidValueError reports a bad argument at construction or
// invocation time.
type InvalidValueError = errors.InvalidValueError

// CycleError reports a dependency cycle found while composing.
type CycleError = errors.CycleError

// UnknownOutputsError reports requested outputs unknown to the network.
type UnknownOutputsError = errors.UnknownOutputsError

// UnsolvableError reports a graph with no satisfiable operations for
// the requested outputs.
type UnsolvableError = errors.UnsolvableError

// ImpossibleOutputsError reports outputs underivable from the inputs.
type ImpossibleOutputsError = errors.ImpossibleOutputsError

// IncompleteExecutionError reports unproduced provides without
// rescheduling.
type IncompleteExecutionError = errors.IncompleteExecutionError

// AbortedError reports an execution stopped by the abort flag.
type AbortedError = errors.AbortedError

// OpError wraps a user-function failure with its diagnostic payload.
type OpError = errors.OpError
