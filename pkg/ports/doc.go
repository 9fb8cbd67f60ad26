/*
Package ports defines the driven ports (interfaces) of the pathquiz engine.

These interfaces decouple the quiz state machine from storage, catalog and
definition sources, so the same engine runs behind a terminal, an HTTP API or an
MCP server.

# Key Interfaces

  - DefinitionLoader: Provides the immutable QuizDefinition (YAML file, embedded default).
  - CourseCatalog: Looks up recommended courses by ID (memory, SQLite).
  - SessionStore: Persists session snapshots (memory, file, Redis).
  - DistributedLocker: Serializes access to one session across replicas.
*/
package ports
