// Package domain defines the core business entities for slack2rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Message: A chat message with an explicit thread state
//   - Channel: A chat channel being synchronised
//   - Document: An embeddable slice of a conversation thread
//   - ChannelCursor: The per-channel sync high-water mark
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
