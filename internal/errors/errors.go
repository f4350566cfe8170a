// Package errors defines domain-level errors used throughout the application.
// These errors represent failures scoped to a single server or request, and are mapped to appropriate
// HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrServerNotFound indicates that the requested MCP server is not registered.
	// Recommended to map to HTTP 404 Not Found.
	ErrServerNotFound = errors.New("server not found")

	// ErrAlreadyRegistered indicates an attempt to register a server ID that is already present.
	// Recommended to map to HTTP 409 Conflict.
	ErrAlreadyRegistered = errors.New("server already registered")

	// ErrServerUnavailable indicates that the server is registered but not connected and enabled.
	// Recommended to map to HTTP 503 Service Unavailable.
	ErrServerUnavailable = errors.New("server not available")

	// ErrInvalidToolID indicates that a qualified tool ID does not match '<namespace>__<server>__<tool>'.
	// Recommended to map to HTTP 400 Bad Request.
	ErrInvalidToolID = errors.New("invalid qualified tool id format")

	// ErrToolNotFound indicates that no connected server has registered the requested tool.
	// Recommended to map to HTTP 404 Not Found.
	ErrToolNotFound = errors.New("tool not found")

	// ErrConnectFailed indicates that starting or initializing the transport for a server failed.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrConnectFailed = errors.New("server connect failed")

	// ErrToolCallFailed indicates that calling a tool on an MCP server failed.
	// This represents a communication, timeout or execution error with the external MCP server.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrToolCallFailed = errors.New("tool call failed")

	// ErrHealthNotTracked indicates that no health result exists for the specified server.
	// Recommended to map to HTTP 404 Not Found.
	ErrHealthNotTracked = errors.New("server health is not being tracked")

	// ErrGroupNotFound indicates that the requested server group is not declared in the configuration.
	// Recommended to map to HTTP 404 Not Found.
	ErrGroupNotFound = errors.New("group not found")

	// ErrTransportNotReady indicates that a transport was used before it started or after it closed.
	// Recommended to map to HTTP 503 Service Unavailable.
	ErrTransportNotReady = errors.New("transport not ready")
)
