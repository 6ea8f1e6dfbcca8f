/*
Package session implements per-conversation state ownership and isolation.

Gate serializes every state-mutating operation of one conversation in arrival order while
letting other conversations run concurrently, optionally layering a distributed lock on top
for multi-replica deployments. Store wraps a session backend with the get/update/clear
contract the flow engine relies on.
*/
package session
