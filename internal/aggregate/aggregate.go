// Package aggregate reconstructs a per-user dashboard view from the many
// small records the program scatters across the ledger.
package aggregate

import (
	"context"
	"log/slog"

	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/records"
	"dinebook/go-client/pkg/models"
)

type scanClient interface {
	ProgramAccounts(ctx context.Context, program ledger.Address, filter ledger.ScanFilter) ([]ledger.KeyedAccount, error)
}

// Aggregator fetches all records owned by a user and reduces them into a
// dashboard-ready view. It never fails hard: malformed records are skipped
// and a total fetch failure degrades to an empty view, so the caller always
// has something renderable.
type Aggregator struct {
	client    scanClient
	programID ledger.Address
}

func NewAggregator(client scanClient, programID ledger.Address) *Aggregator {
	return &Aggregator{client: client, programID: programID}
}

// Dashboard builds the per-user view. Subjects are keyed by the restaurant
// identity stored in the record, not by record address. Dishes are grouped
// by decoded display name: counters sum, every record address contributes,
// and dish identities are deduplicated by identity so one identity is never
// counted twice even if it somehow backs multiple records.
func (a *Aggregator) Dashboard(ctx context.Context, user ledger.Address) models.DashboardView {
	view := models.DashboardView{
		Subjects:     make(map[string]models.SubjectSummary),
		DishesByName: make(map[string]models.DishAggregate),
	}

	for _, entry := range a.scan(ctx, user, records.UserStatsSize, "user stats") {
		stats, err := records.DecodeUserStats(entry.Account.Data)
		if err != nil {
			slog.Warn("skipping malformed user stats record", "address", entry.Address.String(), "reason", err.Error())
			continue
		}
		view.Subjects[stats.Restaurant.String()] = models.SubjectSummary{
			VisitCount:    stats.VisitCount,
			RecordAddress: entry.Address.String(),
		}
	}

	for _, entry := range a.scan(ctx, user, records.DishStatsSize, "dish stats") {
		stats, err := records.DecodeDishStats(entry.Account.Data)
		if err != nil {
			slog.Warn("skipping malformed dish stats record", "address", entry.Address.String(), "reason", err.Error())
			continue
		}
		agg := view.DishesByName[stats.Name]
		agg.Count += stats.Count
		agg.ContributingAddresses = append(agg.ContributingAddresses, entry.Address.String())
		dishID := stats.Dish.String()
		if !containsString(agg.ContributingDishIDs, dishID) {
			agg.ContributingDishIDs = append(agg.ContributingDishIDs, dishID)
		}
		view.DishesByName[stats.Name] = agg
	}

	return view
}

func (a *Aggregator) scan(ctx context.Context, user ledger.Address, dataSize int, kind string) []ledger.KeyedAccount {
	entries, err := a.client.ProgramAccounts(ctx, a.programID, ledger.ScanFilter{
		DataSize:    dataSize,
		OwnerOffset: records.OwnerFieldOffset,
		Owner:       user,
	})
	if err != nil {
		slog.Warn("record scan failed, degrading to empty result", "kind", kind, "reason", err.Error())
		return nil
	}
	return entries
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
