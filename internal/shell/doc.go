// Package shell is the dispatcher of an interactive terminal session.
//
// A Shell owns a virtual filesystem, an environment, a scrollback history and
// the signed-in user. Lines are tokenized, matched against the built-in
// catalog, authorized, and executed; anything not built in is looked up on
// PATH as an interactive program or an executable script. Work that talks to
// collaborators runs off the session loop and is applied back on it.
package shell
