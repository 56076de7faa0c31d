// Package connectors holds the chat platform sources that feed the sync
// pipeline. Each source implements driven.MessageSource.
package connectors
