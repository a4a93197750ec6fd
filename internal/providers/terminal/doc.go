// Package terminal hosts live shell sessions.
//
// Each session owns a shell.Shell confined to its own event loop. The Manager
// creates, looks up and kills sessions and binds every session to the
// configured account and project backends. HTTP handlers, the websocket
// stream and the terminal service all go through the Manager.
//
// Features:
//   - Multiple concurrent sessions, capped by SHELL_MAX_SESSIONS
//   - Snapshot subscriptions pushed after every batch of visible changes
//   - Navigation requests recorded and forwarded to subscribers
//   - Session tokens restored on create so a signed-in account survives reconnects
//
// Example Usage:
//
//	// Create a new session
//	terminal.create_session(token: "eyJ...")
//	// → Returns session_id and the first snapshot
//
//	// Run a command
//	terminal.submit(session_id: "sess_01H...", line: "ls Developers")
//
//	// Tab completion
//	terminal.complete(session_id: "sess_01H...", input: "cd Dev")
//
// Tools:
//   - terminal.create_session: Open a session
//   - terminal.submit: Run a command line
//   - terminal.complete: Complete a partial line
//   - terminal.type: Type text into the prompt with the typing animation
//   - terminal.interrupt: Stop a running program or typing
//   - terminal.history: Return the session's entries
//   - terminal.get_session: Describe one session
//   - terminal.list_sessions: List all live sessions
//   - terminal.kill: Close a session
package terminal
