// Package types provides shared data structures for the fastshell server.
//
// Core Types:
//   - Service, Tool, Parameter: service provider definitions
//   - Context: who a tool runs for
//   - Result: standard tool result
//
// Request Types:
//   - ExecuteRequest: service tool execution
//   - CreateSessionRequest, InputRequest, CompleteRequest, TypeRequest: shell sessions
//   - WSMessage, WSEvent: websocket communication
//
// Example Usage:
//
//	return types.Success(map[string]interface{}{"session_id": id})
package types
