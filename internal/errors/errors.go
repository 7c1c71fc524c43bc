// Package errors classifies build failures for reporting. Every failure is
// fatal; classification only decides how the CLI presents it and which exit
// code the process returns.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/bundler/internal/config"
	"git.home.luguber.info/inful/bundler/internal/emit"
	"git.home.luguber.info/inful/bundler/internal/mode"
	"git.home.luguber.info/inful/bundler/internal/resolver"
	"git.home.luguber.info/inful/bundler/internal/transform"
)

// Category classifies a build failure by its origin.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryResolution Category = "resolution"
	CategoryTransform  Category = "transform"
	CategoryPlan       Category = "plan"
	CategoryEmit       Category = "emit"
	CategoryCanceled   Category = "canceled"
	CategoryInternal   Category = "internal"
)

// BuildError is a classified build failure.
type BuildError struct {
	Category Category
	Message  string
	Cause    error
}

func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *BuildError) Unwrap() error { return e.Cause }

// New creates a classified error.
func New(category Category, message string) *BuildError {
	return &BuildError{Category: category, Message: message}
}

// Wrap classifies an existing error.
func Wrap(err error, category Category, message string) *BuildError {
	return &BuildError{Category: category, Message: message, Cause: err}
}

// Classify maps an arbitrary pipeline error to a BuildError. Typed domain
// errors carry their own category; anything unrecognized is internal.
func Classify(err error) *BuildError {
	if err == nil {
		return nil
	}

	var be *BuildError
	if stderrors.As(err, &be) {
		return be
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return &BuildError{Category: CategoryCanceled, Message: "build canceled", Cause: err}
	}
	var cfgErr *config.ConfigError
	if stderrors.As(err, &cfgErr) {
		return &BuildError{
			Category: CategoryConfig,
			Message:  fmt.Sprintf("%s: %s", cfgErr.Field, cfgErr.Message),
			Cause:    err,
		}
	}
	if stderrors.Is(err, mode.ErrUnknownMode) {
		return &BuildError{Category: CategoryConfig, Message: "invalid build mode", Cause: err}
	}

	var resErr *resolver.ResolutionError
	if stderrors.As(err, &resErr) {
		return &BuildError{
			Category: CategoryResolution,
			Message:  fmt.Sprintf("cannot resolve %q imported from %s", resErr.Specifier, resErr.From),
			Cause:    err,
		}
	}

	var trErr *transform.TransformError
	if stderrors.As(err, &trErr) {
		return &BuildError{
			Category: CategoryTransform,
			Message:  fmt.Sprintf("transform %s failed on %s", trErr.Unit, trErr.ModuleID),
			Cause:    err,
		}
	}

	var emErr *emit.EmitError
	if stderrors.As(err, &emErr) {
		return &BuildError{
			Category: CategoryEmit,
			Message:  fmt.Sprintf("cannot write %s", emErr.Path),
			Cause:    err,
		}
	}

	return &BuildError{Category: CategoryInternal, Message: "unexpected failure", Cause: err}
}

// GetCategory extracts the category from an error chain.
func GetCategory(err error) Category {
	return Classify(err).Category
}

// IsCategory reports whether an error classifies into the given category.
func IsCategory(err error, category Category) bool {
	if err == nil {
		return false
	}
	return Classify(err).Category == category
}
