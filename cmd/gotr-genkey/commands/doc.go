// Package commands defines the gotr-genkey CLI.
//
// Usage
//
//	gotr-genkey FILE                 Create a new identity key in FILE
//	gotr-genkey fingerprint FILE     Print the fingerprint of the key in FILE
//
// The key file holds the raw 32-byte private key with no header and is
// created with mode 0600. An existing file is never replaced unless --force
// is given. Any failure exits with a non-zero status.
package commands
