// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - MessageSource: Lists channels, messages and thread replies (Slack)
//   - Resolver: Turns raw markup and user IDs into readable text
//   - Embedder: Generates vector embeddings (Ollama, OpenAI)
//   - VectorIndex: Stores and searches embedded documents (Qdrant)
//   - CursorStore: Persists per-channel sync progress (JSON file, SQLite)
//   - ConfigStore: Reads file-based configuration (TOML)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
