// Package mcp exposes the search operations as Model Context Protocol
// tools over stdio, and provides the shared tool dispatch the HTTP
// surface reuses.
package mcp

import (
	"context"
	"fmt"

	apierrors "github.com/devapihub/apisearch/internal/errors"
)

// JSON-RPC error codes for tool failures.
const (
	// ErrCodeNotFound indicates a missing index, entity or tool.
	ErrCodeNotFound = -32001

	// ErrCodeInvalidParams is the standard invalid-params code.
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError is the standard internal-error code.
	ErrCodeInternalError = -32603

	// ErrCodeDatabase indicates a catalog storage read failed.
	ErrCodeDatabase = -32010

	// ErrCodeEncoder indicates embedding encoder failure.
	ErrCodeEncoder = -32011
)

// MCPError is a protocol-level error with a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewToolNotFoundError creates an unknown-tool error.
func NewToolNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

// MapError converts internal errors to protocol errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	if mcpErr, ok := err.(*MCPError); ok {
		return mcpErr
	}

	switch err {
	case context.DeadlineExceeded:
		return &MCPError{Code: ErrCodeInternalError, Message: "Request timed out."}
	case context.Canceled:
		return &MCPError{Code: ErrCodeInternalError, Message: "Request was canceled."}
	}

	code := apierrors.GetCode(err)
	switch code {
	case apierrors.ErrCodeIndexNotBuilt, apierrors.ErrCodeUnknownTool:
		return &MCPError{Code: ErrCodeNotFound, Message: err.Error()}
	case apierrors.ErrCodeInvalidInput, apierrors.ErrCodeQueryEmpty,
		apierrors.ErrCodeUnknownEntityType, apierrors.ErrCodeDimensionMismatch:
		return &MCPError{Code: ErrCodeInvalidParams, Message: err.Error()}
	case apierrors.ErrCodeDatabaseOpen, apierrors.ErrCodeDatabaseRead:
		return &MCPError{Code: ErrCodeDatabase, Message: err.Error()}
	case apierrors.ErrCodeEncoderInit, apierrors.ErrCodeModelUnavailable,
		apierrors.ErrCodeEmbeddingFailed:
		return &MCPError{Code: ErrCodeEncoder, Message: err.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}
