package executor

import (
	"context"
	"time"
)

// Executor runs the code cells of a notebook document in place.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Request names the document to execute.
type Request struct {
	// Path is the template document. Executors must not run a derived variant.
	Path string
	// Dir is the working directory for the run; empty means the document's directory.
	Dir string
}

// Result holds the output of an execution.
type Result struct {
	Output   string
	Duration time.Duration
}
