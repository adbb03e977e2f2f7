package aggregate

import (
	"context"
	"errors"
	"testing"

	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/records"
)

type fakeScanner struct {
	bySize map[int][]ledger.KeyedAccount
	err    error
}

func (f *fakeScanner) ProgramAccounts(_ context.Context, _ ledger.Address, filter ledger.ScanFilter) ([]ledger.KeyedAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bySize[filter.DataSize], nil
}

var (
	programID = ledger.Address{0xAA}
	owner     = ledger.Address{1}
	restA     = ledger.Address{2}
	restB     = ledger.Address{3}
)

func dishRecord(t *testing.T, addr ledger.Address, dish ledger.Address, name string, count uint64) ledger.KeyedAccount {
	t.Helper()
	data, err := records.EncodeDishStats(records.DishStats{User: owner, Dish: dish, Count: count, Name: name})
	if err != nil {
		t.Fatalf("encode dish record: %v", err)
	}
	return ledger.KeyedAccount{Address: addr, Account: ledger.Account{Data: data}}
}

func TestDashboardGroupsSubjectsByRestaurantIdentity(t *testing.T) {
	scanner := &fakeScanner{bySize: map[int][]ledger.KeyedAccount{
		records.UserStatsSize: {
			{Address: ledger.Address{10}, Account: ledger.Account{
				Data: records.EncodeUserStats(records.UserStats{User: owner, Restaurant: restA, VisitCount: 4}),
			}},
			{Address: ledger.Address{11}, Account: ledger.Account{
				Data: records.EncodeUserStats(records.UserStats{User: owner, Restaurant: restB, VisitCount: 1}),
			}},
		},
	}}
	view := NewAggregator(scanner, programID).Dashboard(context.Background(), owner)

	if len(view.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(view.Subjects))
	}
	entry, ok := view.Subjects[restA.String()]
	if !ok {
		t.Fatal("subjects must be keyed by the restaurant identity field")
	}
	if entry.VisitCount != 4 {
		t.Fatalf("unexpected visit count: %d", entry.VisitCount)
	}
	if entry.RecordAddress != (ledger.Address{10}).String() {
		t.Fatal("subject must carry its own record address")
	}
}

func TestDashboardSumsDishCountsByName(t *testing.T) {
	dishX := ledger.Address{20}
	dishY := ledger.Address{21}
	scanner := &fakeScanner{bySize: map[int][]ledger.KeyedAccount{
		records.DishStatsSize: {
			dishRecord(t, ledger.Address{30}, dishX, "katsu curry", 3),
			dishRecord(t, ledger.Address{31}, dishY, "katsu curry", 4),
		},
	}}
	view := NewAggregator(scanner, programID).Dashboard(context.Background(), owner)

	agg, ok := view.DishesByName["katsu curry"]
	if !ok {
		t.Fatal("dishes must be grouped by display name")
	}
	if agg.Count != 7 {
		t.Fatalf("expected summed count 7, got %d", agg.Count)
	}
	if len(agg.ContributingAddresses) != 2 {
		t.Fatalf("expected 2 contributing addresses, got %d", len(agg.ContributingAddresses))
	}
	if len(agg.ContributingDishIDs) != 2 {
		t.Fatalf("expected 2 contributing identities, got %d", len(agg.ContributingDishIDs))
	}
}

func TestDashboardDeduplicatesDishIdentities(t *testing.T) {
	dishX := ledger.Address{20}
	scanner := &fakeScanner{bySize: map[int][]ledger.KeyedAccount{
		records.DishStatsSize: {
			dishRecord(t, ledger.Address{30}, dishX, "pho", 1),
			dishRecord(t, ledger.Address{31}, dishX, "pho", 2),
		},
	}}
	view := NewAggregator(scanner, programID).Dashboard(context.Background(), owner)

	agg := view.DishesByName["pho"]
	if agg.Count != 3 {
		t.Fatalf("expected summed count 3, got %d", agg.Count)
	}
	if len(agg.ContributingAddresses) != 2 {
		t.Fatal("every record address contributes")
	}
	if len(agg.ContributingDishIDs) != 1 {
		t.Fatalf("identities must be deduplicated, got %d", len(agg.ContributingDishIDs))
	}
}

func TestDashboardSkipsMalformedRecords(t *testing.T) {
	good := dishRecord(t, ledger.Address{30}, ledger.Address{20}, "bibimbap", 2)
	bad := ledger.KeyedAccount{Address: ledger.Address{31}, Account: ledger.Account{Data: make([]byte, records.DishStatsSize)}}
	scanner := &fakeScanner{bySize: map[int][]ledger.KeyedAccount{
		records.DishStatsSize: {bad, good},
	}}
	view := NewAggregator(scanner, programID).Dashboard(context.Background(), owner)

	if len(view.DishesByName) != 1 {
		t.Fatalf("expected one decoded dish, got %d", len(view.DishesByName))
	}
	if view.DishesByName["bibimbap"].Count != 2 {
		t.Fatal("a malformed record must not abort the rest of the aggregation")
	}
}

func TestDashboardDegradesToEmptyViewOnFetchFailure(t *testing.T) {
	scanner := &fakeScanner{err: &ledger.TransportError{Err: errors.New("connection refused")}}
	view := NewAggregator(scanner, programID).Dashboard(context.Background(), owner)

	if view.Subjects == nil || view.DishesByName == nil {
		t.Fatal("view must stay renderable on total fetch failure")
	}
	if len(view.Subjects) != 0 || len(view.DishesByName) != 0 {
		t.Fatal("degraded view must be empty")
	}
}
