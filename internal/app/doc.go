// Package app wires application dependencies for the library facade and
// the CLIs.
//
// It initialises the crypto provider, builds the key agreement engine and
// the identity service from Config, and hands a ready Room to the caller.
package app
