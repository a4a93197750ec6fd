// Package logging wraps zap for the server and the local REPL.
//
// Production builds log JSON with ISO8601 timestamps; development builds log
// colored console lines. Components derive named children:
//
//	log := logger.Component("terminal")
//	log.Session(sid).Info("session opened")
package logging
