// Package apperr defines the error kinds surfaced by the question-answering pipeline.
//
// Configuration and index-build errors are fatal at startup. Retrieval and
// generation errors are scoped to a single query and never change pipeline state.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is any error that has not been classified.
	KindUnknown Kind = iota
	// KindConfiguration covers a missing credential, document, or invalid setting.
	KindConfiguration
	// KindIndexBuild covers chunking, embedding, or index failures at startup.
	KindIndexBuild
	// KindRetrieval covers query embedding and index search failures.
	KindRetrieval
	// KindGeneration covers language model failures, including timeouts.
	KindGeneration
)

// String returns the error name used in logs.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindIndexBuild:
		return "IndexBuildError"
	case KindRetrieval:
		return "RetrievalError"
	case KindGeneration:
		return "GenerationError"
	default:
		return "UnknownError"
	}
}

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) error {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configuration wraps err as a configuration error.
func Configuration(op string, err error) error { return newError(KindConfiguration, op, err) }

// IndexBuild wraps err as an index build error.
func IndexBuild(op string, err error) error { return newError(KindIndexBuild, op, err) }

// Retrieval wraps err as a retrieval error.
func Retrieval(op string, err error) error { return newError(KindRetrieval, op, err) }

// Generation wraps err as a generation error.
func Generation(op string, err error) error { return newError(KindGeneration, op, err) }

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fatal reports whether err must stop the process from serving.
func Fatal(err error) bool {
	k := KindOf(err)
	return k == KindConfiguration || k == KindIndexBuild
}
