// Package config provides configuration loading and the construction of the database pools,
// the logger and the OpenTelemetry providers used by the lending service.
//
// Configuration is layered: built-in defaults, then an optional YAML file, then environment
// variables (LENDING_*). A .env file is loaded into the environment by the CLI before Load runs.
package config
