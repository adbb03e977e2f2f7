package program

import (
	"context"
	"errors"
	"fmt"

	"dinebook/go-client/internal/classify"
	"dinebook/go-client/internal/derive"
	"dinebook/go-client/internal/ledger"
)

// DishOrder is one dish the user wants to pre-order with a booking.
type DishOrder struct {
	Identity ledger.Address
	Name     string
}

// BookingPlan is a fully-resolved booking intent: all identities are already
// concrete addresses.
type BookingPlan struct {
	User               ledger.Address
	Restaurant         ledger.Address
	Dishes             []DishOrder
	PaymentLamports    uint64
	PaymentDestination ledger.Address
}

// ReviewPlan is a fully-resolved review intent.
type ReviewPlan struct {
	User            ledger.Address
	Restaurant      ledger.Address
	Rating          uint8
	Text            string
	ConfidenceLevel uint8
}

type accountProber interface {
	AccountExists(ctx context.Context, addr ledger.Address) (bool, error)
}

// Composer turns resolved intents into ordered operation lists. It probes
// record existence so that already-tracked dishes are never re-initialized
// and duplicate reviews fail before submission.
type Composer struct {
	programID ledger.Address
	prober    accountProber
}

func NewComposer(programID ledger.Address, prober accountProber) *Composer {
	return &Composer{programID: programID, prober: prober}
}

var ErrNoProber = errors.New("account prober is not configured")

// ComposeBooking builds the operation list for a booking, in strict order:
// the payment transfer first when present, then one initialize operation per
// dish whose record does not exist yet, then exactly one book operation.
// The book operation carries the (record, dish) pair for every supplied
// dish, initialized or not, in supply order.
func (c *Composer) ComposeBooking(ctx context.Context, plan BookingPlan) ([]Operation, error) {
	if c.prober == nil {
		return nil, ErrNoProber
	}

	ops := make([]Operation, 0, len(plan.Dishes)+2)
	if plan.PaymentLamports > 0 {
		if plan.PaymentDestination.IsZero() {
			return nil, classify.Wrap(classify.InvalidDestination, errors.New("payment destination is required when amount > 0"))
		}
		ops = append(ops, Transfer(plan.User, plan.PaymentDestination, plan.PaymentLamports))
	}

	pairs := make([]DishAccount, 0, len(plan.Dishes))
	for _, dish := range plan.Dishes {
		record, err := derive.DishStatsAddress(c.programID, plan.User, dish.Identity)
		if err != nil {
			return nil, err
		}
		exists, err := c.prober.AccountExists(ctx, record)
		if err != nil {
			return nil, classify.Wrap(classify.RemoteUnavailable, fmt.Errorf("probe dish record %s: %w", record, err))
		}
		if !exists {
			ops = append(ops, InitializeDishStats(c.programID, record, dish.Identity, plan.User, dish.Name))
		}
		pairs = append(pairs, DishAccount{Record: record, Dish: dish.Identity})
	}

	userStats, err := derive.UserStatsAddress(c.programID, plan.User, plan.Restaurant)
	if err != nil {
		return nil, err
	}
	ops = append(ops, BookTable(c.programID, userStats, plan.Restaurant, plan.User, pairs))
	return ops, nil
}

// ComposeReview builds the single-operation list for a review submission.
// A review record that already exists fails here, before anything is
// submitted, since the record is write-once.
func (c *Composer) ComposeReview(ctx context.Context, plan ReviewPlan) ([]Operation, error) {
	if c.prober == nil {
		return nil, ErrNoProber
	}
	if plan.Rating < 1 || plan.Rating > 5 {
		return nil, classify.Wrap(classify.InvalidRating, fmt.Errorf("rating %d is out of range", plan.Rating))
	}
	if plan.ConfidenceLevel < 1 || plan.ConfidenceLevel > 10 {
		return nil, classify.Wrap(classify.InvalidConfidenceLevel, fmt.Errorf("confidence level %d is out of range", plan.ConfidenceLevel))
	}

	review, err := derive.ReviewAddress(c.programID, plan.User, plan.Restaurant)
	if err != nil {
		return nil, err
	}
	exists, err := c.prober.AccountExists(ctx, review)
	if err != nil {
		return nil, classify.Wrap(classify.RemoteUnavailable, fmt.Errorf("probe review record %s: %w", review, err))
	}
	if exists {
		return nil, classify.Wrap(classify.DuplicateReview, fmt.Errorf("review already exists for restaurant %s", plan.Restaurant))
	}
	return []Operation{
		SubmitReview(c.programID, review, plan.Restaurant, plan.User, plan.Rating, plan.Text, plan.ConfidenceLevel),
	}, nil
}
