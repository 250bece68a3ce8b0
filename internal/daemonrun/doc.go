// Package daemonrun wires the quest daemon process: logging, preflight
// checks, the enrichment provider, the state store and signal handling.
package daemonrun
