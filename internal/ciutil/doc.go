// Package ciutil detects CI environments and resolves the settings that integration
// tests read from the environment, such as the postgres URL for the durable cache tier.
package ciutil
