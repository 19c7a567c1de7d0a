// Package config handles YAML configuration loading with environment
// variable substitution.
//
// Configuration files support ${VAR} syntax; the access token is normally
// supplied as ${ACCESS_TOKEN} from the environment or a .env file.
package config
