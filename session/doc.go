// Package session provides session persistence backends.
//
// Two implementations are included: MemoryStore for tests and
// short-lived processes, and FileStore which writes one JSON file per
// session. The live sub-agent handle is never persisted; callers
// rebuild it from the stored configuration after loading.
package session
