package models

// Snapshot is the atomic unit of synchronization: the full roster, the
// full config, and the moment the snapshot was produced. Devices never
// exchange anything smaller; reconciliation picks whole snapshots by
// comparing LastUpdated.
type Snapshot struct {
	// Students is the complete student list.
	Students []Student `json:"students"`

	// Config is the complete payee configuration.
	Config Config `json:"config"`

	// LastUpdated is epoch milliseconds at snapshot creation time.
	LastUpdated int64 `json:"lastUpdated"`
}

// Clone returns a deep copy so stored snapshots never share slices
// with live roster state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Students:    make([]Student, len(s.Students)),
		Config:      s.Config,
		LastUpdated: s.LastUpdated,
	}
	copy(out.Students, s.Students)
	out.Config.Payees = make([]Payee, len(s.Config.Payees))
	copy(out.Config.Payees, s.Config.Payees)
	return out
}
