package ir

// Environment is a named network context. Before resolution Identities is
// empty and DefaultTransaction may carry an index-form sender; resolution
// fills Identities from the network and substitutes the sender, on a copy.
type Environment struct {
	Name               string
	Client             any // opaque RPC handle, asserted by the resolver
	Identities         []Address
	DefaultTransaction *Transaction
}

// Clone returns a deep copy of the environment. The RPC handle is shared;
// everything else is copied so resolution never mutates its input.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	out := &Environment{
		Name:               e.Name,
		Client:             e.Client,
		DefaultTransaction: e.DefaultTransaction.Clone(),
	}
	if e.Identities != nil {
		out.Identities = append([]Address(nil), e.Identities...)
	}
	return out
}
