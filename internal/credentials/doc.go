// Package credentials resolves API keys from an ordered chain of named
// providers. The standard chain consults the TOML secrets file first and the
// process environment second; a .env file can seed the environment at
// startup.
package credentials
