// Package config loads authorizer settings from the environment.
//
// Load reads an optional .env file, starts from Default, overrides every
// field whose `env` tag names a set variable, and validates the result.
package config
