package ir

import (
	"encoding/json"
	"fmt"
)

// From identifies the sending account of a transaction, either as a
// literal address or as an index into the environment's identity list.
// Index forms are substituted with the matching identity during
// environment resolution and again when a per-call override carries one.
type From struct {
	index   uint
	address Address
	byIndex bool
	set     bool
}

// FromIndex returns a From that refers to identities[i].
func FromIndex(i uint) From {
	return From{index: i, byIndex: true, set: true}
}

// FromAddress returns a From holding a literal address.
func FromAddress(a Address) From {
	return From{address: a, set: true}
}

// IsZero reports whether no sender was specified.
func (f From) IsZero() bool { return !f.set }

// Index returns the identity index and whether the From is index-form.
func (f From) Index() (uint, bool) { return f.index, f.set && f.byIndex }

// Addr returns the literal address and whether the From is address-form.
func (f From) Addr() (Address, bool) { return f.address, f.set && !f.byIndex }

// Resolve substitutes an index-form From with identities[index]. An
// address-form From is returned untouched. An out-of-range index is an
// error rather than a silent empty sender.
func (f From) Resolve(identities []Address) (From, error) {
	i, ok := f.Index()
	if !ok {
		return f, nil
	}
	if int(i) >= len(identities) {
		return From{}, fmt.Errorf("identity index %d out of range (%d identities)", i, len(identities))
	}
	return FromAddress(identities[i]), nil
}

// MarshalJSON encodes index-form as a JSON number and address-form as a
// string, matching the persisted document's shape.
func (f From) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	if f.byIndex {
		return json.Marshal(f.index)
	}
	return json.Marshal(string(f.address))
}

// UnmarshalJSON accepts either a JSON number (identity index) or a
// string (literal address).
func (f *From) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = From{}
		return nil
	}
	var idx uint
	if err := json.Unmarshal(data, &idx); err == nil {
		*f = FromIndex(idx)
		return nil
	}
	var addr string
	if err := json.Unmarshal(data, &addr); err != nil {
		return fmt.Errorf("from must be an identity index or an address: %w", err)
	}
	*f = FromAddress(Address(addr))
	return nil
}

// Transaction is a transaction template. All fields are optional;
// zero-valued fields are omitted from the persisted document.
type Transaction struct {
	From     From    `json:"from,omitzero"`
	To       Address `json:"to,omitempty"`
	Data     string  `json:"data,omitempty"`
	Gas      uint64  `json:"gas,omitempty"`
	GasPrice string  `json:"gasPrice,omitempty"`
	Value    string  `json:"value,omitempty"`
}

// Clone returns a copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

// Merge overlays override onto the receiver field-by-field, the override
// winning wherever it carries a non-zero field, and returns a new
// transaction. Neither input is mutated.
func (t *Transaction) Merge(override *Transaction) *Transaction {
	base := t.Clone()
	if base == nil {
		base = &Transaction{}
	}
	if override == nil {
		return base
	}
	if !override.From.IsZero() {
		base.From = override.From
	}
	if override.To != "" {
		base.To = override.To
	}
	if override.Data != "" {
		base.Data = override.Data
	}
	if override.Gas != 0 {
		base.Gas = override.Gas
	}
	if override.GasPrice != "" {
		base.GasPrice = override.GasPrice
	}
	if override.Value != "" {
		base.Value = override.Value
	}
	return base
}

// txObjectKeys are the transaction-shaped keys the legacy override
// detection looks for.
var txObjectKeys = map[string]bool{
	"from":     true,
	"to":       true,
	"data":     true,
	"gas":      true,
	"gasPrice": true,
}

// LooksLikeTransaction reports whether a loosely-typed map is shaped like
// a transaction override: at most five keys with at least one of
// from/to/data/gas/gasPrice present. A zero-key map always matches; the
// rule is load-bearing for existing configurations and is preserved
// exactly.
func LooksLikeTransaction(m map[string]any) bool {
	if m == nil {
		return false
	}
	if len(m) == 0 {
		return true
	}
	if len(m) > 5 {
		return false
	}
	for k := range m {
		if txObjectKeys[k] {
			return true
		}
	}
	return false
}
