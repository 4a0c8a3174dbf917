/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the stasis command line interface.
//
// The CLI uses the urfave/cli/v3 framework and operates directly on
// the local snapshot engine: each command loads configuration, wires
// the configured capture provider and file store into the
// orchestrator, runs one operation, and drains pending cleanup work
// before exiting.
//
// Commands:
//
//	create   capture a snapshot of a target container
//	list     list snapshot records
//	get      show one snapshot record
//	restore  restore a snapshot into a new target
//	delete   delete a snapshot and its artifact
//	cleanup  run a retention pass
//	stats    show aggregate snapshot statistics
//	publish  publish a snapshot payload to an OCI registry
//
// Global flags select the config file and log level; per-command
// --format and --output control serialization (json, yaml, table) and
// destination. Environment variables use the STASIS_ prefix.
package cli
