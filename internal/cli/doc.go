// Package cli implements the karasu command-line interface.
//
// Each Cobra command loads the effective config, opens the file logger and
// builds a backend client through openSession, then delegates to the
// internal packages that do the work.
//
// # Command Structure
//
//	karasu              - Dashboard (status report when not on a TTY)
//	karasu dash         - Dashboard, optionally with a --bridge socket
//	karasu status       - Backend health and a metrics snapshot
//	karasu ps           - Process list
//	karasu kill <pid>   - Confirmed process termination
//	karasu clean-ram    - Confirmed clean_ram action
//	karasu cmd <text>   - Send a command
//	karasu chat <msg>   - One AI chat turn
//	karasu serve-dev    - Development backend on this machine
//	karasu config       - Effective configuration
//	karasu version      - Build information
//
// # Flag Handling
//
// Global flags (--config, --url, --debug, --json) are defined on the root
// command. --json switches supporting commands to the JSONEnvelope output
// and makes Execute report failures as JSON too.
package cli
