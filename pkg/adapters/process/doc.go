// Package process exposes allow-listed external commands as step handlers.
package process
