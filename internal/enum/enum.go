package enum

// ── Item lifecycle (guarded in the store with state-checked updates) ──

const (
	ItemStateQueued    = "QUEUED"
	ItemStatePreparing = "PREPARING"
	ItemStateReady     = "READY"
	ItemStateServed    = "SERVED"
	ItemStateCancelled = "CANCELLED"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusSubmitted = "SUBMITTED"
)

// ── Pricing ──

const (
	PricingPerUnit   = "PER_UNIT"
	PricingPerPerson = "PER_PERSON"
)

// ── Stations (configurable labels, no DB constraint) ──
//
// Station names come from product metadata; anything not in this set is
// bucketed under StationOtros when building queue views.

const (
	StationFrio     = "frio"
	StationCaliente = "caliente"
	StationBebida   = "bebida"
	StationPostre   = "postre"
	StationOtros    = "otros"
)

// Stations lists the fixed kitchen stations in display order, without the
// catch-all bucket.
var Stations = []string{StationFrio, StationCaliente, StationBebida, StationPostre}

// IsKnownStation reports whether s is one of the fixed stations.
func IsKnownStation(s string) bool {
	for _, st := range Stations {
		if s == st {
			return true
		}
	}
	return false
}

// IsTerminalItemState reports whether an item can no longer change state.
func IsTerminalItemState(s string) bool {
	return s == ItemStateServed || s == ItemStateCancelled
}
