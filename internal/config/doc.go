// Package config loads and validates the parley-gateway configuration.
//
// Configuration is a YAML file with ${VAR_NAME} environment expansion, read
// once at process start. Validation is strict about what the gateway cannot
// run without: the listen address and the OAuth connection name. A missing
// connection name aborts startup before any port is bound.
package config
