package kitchen

import (
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/store"
)

// StationQueues maps a station name to its items, in the order the store
// returned them (creation order). Items whose station is not one of the
// fixed set land in the "otros" bucket instead of being dropped.
type StationQueues map[string][]store.OrderItem

// QueuesByStation partitions the items of the given orders by station,
// keeping only items in the given state. Every fixed station is present in
// the result even when empty, so displays can render all columns.
func QueuesByStation(orders []store.Order, state string) StationQueues {
	queues := make(StationQueues, len(enum.Stations)+1)
	for _, st := range enum.Stations {
		queues[st] = nil
	}
	for _, o := range orders {
		for _, it := range o.Items {
			if it.State != state {
				continue
			}
			st := it.Station
			if !enum.IsKnownStation(st) {
				st = enum.StationOtros
			}
			queues[st] = append(queues[st], it)
		}
	}
	return queues
}
