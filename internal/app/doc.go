// Package app contains the tuning-run orchestrator. It defines the run
// configuration and the sequential pipeline that prepares a tune directory,
// runs the optimizer and publishes its final decoder config, decoupled from
// any specific entrypoint like a CLI.
package app
