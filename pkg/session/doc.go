/*
Package session hosts live quiz engines keyed by session ID.

The Manager serializes operations per session with reference-counted local locks
(plus an optional distributed lock), persists a snapshot after every accepted
mutation, and rehydrates engines from the store on demand so a session survives
eviction or a process restart. Transition locks are never persisted: a rehydrated
session is always unlocked.
*/
package session
