// Package daemon ties the pedido store, the transition orchestrator, and
// the periodic maintenance sweep into a single lifecycle with flock-based
// locking to prevent multiple instances from sharing one database.
package daemon
