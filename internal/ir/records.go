package ir

// Record is the persisted state of one deployed artifact, read back on
// the next run for the idempotency comparison. The set is read-only
// input; a run never mutates records it loaded.
type Record struct {
	Address     Address        `json:"address"`
	Bytecode    string         `json:"bytecode"`
	Transaction *Transaction   `json:"transactionObject,omitempty"`
	Inputs      []any          `json:"inputs,omitempty"`
	Receipt     map[string]any `json:"receipt,omitempty"`
}

// Records maps artifact name to its deployment record within one
// environment scope.
type Records map[string]*Record

// Document is the persisted output file: one top-level key per
// environment name. This is the round-trip contract idempotency
// depends on.
type Document map[string]Records
