// Package ws streams a shell session over a WebSocket.
//
// A client connects to /stream/:id and immediately receives the session's
// current snapshot. After that every batch of visible changes is pushed as
// a new snapshot, and navigation requests are forwarded as they happen.
//
// Message Types (Client → Server):
//   - input: Submit a command line (line)
//   - keys: Replace the prompt contents (text)
//   - complete: Tab-complete a partial line (text)
//   - activate: Perform a line action (command, run)
//   - hover: Set the hint for the hovered item (text)
//   - interrupt: Stop a program, typing or composing
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - snapshot: The session's visible state
//   - navigate: A page change the shell requested
//   - closed: The session was killed
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, metrics, logger)
//	router.GET("/stream/:id", handler.HandleConnection)
package ws
