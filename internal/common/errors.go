package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorKind classifies every failure a pipeline run can end with.
type ErrorKind string

const (
	KindExtraction ErrorKind = "extraction"
	KindNetwork    ErrorKind = "network"
	KindGeneration ErrorKind = "generation"
	KindParse      ErrorKind = "parse"
	KindValidation ErrorKind = "validation"
)

// PipelineError is the single classified error a failed run returns.
// Message is written for end users; Cause keeps the technical detail.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the human readable message with a remedy hint.
func (e *PipelineError) UserMessage() string {
	switch e.Kind {
	case KindExtraction:
		return "document could not be read: " + e.Message
	case KindParse:
		return "AI returned invalid format, please try again"
	default:
		return e.Message
	}
}

// GRPCStatus lets callers hand a PipelineError straight to a gRPC boundary.
func (e *PipelineError) GRPCStatus() *status.Status {
	return status.New(e.Code(), e.UserMessage())
}

// Code maps the error kind onto a gRPC status code.
func (e *PipelineError) Code() codes.Code {
	switch e.Kind {
	case KindExtraction:
		return codes.InvalidArgument
	case KindNetwork:
		return codes.Unavailable
	case KindGeneration:
		if errors.Is(e.Cause, ErrUnauthorized) {
			return codes.Unauthenticated
		}
		return codes.Unavailable
	case KindParse:
		return codes.DataLoss
	case KindValidation:
		return codes.FailedPrecondition
	default:
		return codes.Unknown
	}
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrEmptyDocument    = errors.New("no text could be extracted")
	ErrInvalidSignature = errors.New("not a PDF document")
	ErrEmptyResponse    = errors.New("empty response")
	ErrNoQuestions      = errors.New("no valid questions were generated")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewPipelineError(kind ErrorKind, message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func ExtractionError(message string, cause error) *PipelineError {
	return NewPipelineError(KindExtraction, message, cause)
}

func NetworkError(message string, cause error) *PipelineError {
	return NewPipelineError(KindNetwork, message, cause)
}

func GenerationError(message string, cause error) *PipelineError {
	return NewPipelineError(KindGeneration, message, cause)
}

func ParseError(message string, cause error) *PipelineError {
	return NewPipelineError(KindParse, message, cause)
}

func ValidationError(message string, cause error) *PipelineError {
	return NewPipelineError(KindValidation, message, cause)
}

// Classify returns err unchanged when it already carries a kind; anything else
// is wrapped into the given kind so callers never see an untyped error.
func Classify(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return NewPipelineError(kind, defaultMessage(kind), err)
}

// KindOf reports the kind of a classified error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func defaultMessage(kind ErrorKind) string {
	switch kind {
	case KindExtraction:
		return "the document could not be processed"
	case KindNetwork:
		return "could not download the document; upload the file directly instead of using a URL"
	case KindGeneration:
		return "the AI service failed to generate a quiz"
	case KindParse:
		return "the AI response could not be parsed"
	case KindValidation:
		return ErrNoQuestions.Error()
	default:
		return "unexpected failure"
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
