/*
Package ports defines the driven and driving ports (interfaces) of the onboarding engine.

These interfaces decouple the state machine from external implementations, allowing the
engine to work with various session backends and transports.

# Key Interfaces

  - SessionStore: Persists and loads per-conversation Session records (memory, file, Redis).
  - DistributedLocker: Provides cross-replica locking for a conversation identity.
  - Flow: What transports call to hand an inbound Event to the engine.
*/
package ports
