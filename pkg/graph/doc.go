/*
Package graph holds the immutable question graph of an onboarding flow.

A Store is built once from configuration with Load, which validates every node and every
reference before returning. After Load the Store is read-only and safe for concurrent use
without locking.
*/
package graph
