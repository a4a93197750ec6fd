/*
Command fastshell runs a shell session in the local terminal.

	fastshell repl              # in-memory accounts and projects
	fastshell repl --url URL    # against a fastcode API backend

Lines are submitted as typed. A line starting with "?" completes the rest
instead of running it and leaves the result in the prompt.
*/
package main
