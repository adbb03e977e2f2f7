// Package booking is the orchestration layer: it turns UI intents into
// composed, signed, submitted operation bundles and reconstructs the
// dashboard view on load.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dinebook/go-client/internal/aggregate"
	"dinebook/go-client/internal/classify"
	"dinebook/go-client/internal/confidence"
	"dinebook/go-client/internal/derive"
	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/program"
	"dinebook/go-client/internal/records"
	"dinebook/go-client/internal/session"
	"dinebook/go-client/internal/submit"
	"dinebook/go-client/pkg/models"
)

// Service binds one (signer, ledger endpoint, program) triple. It is
// constructed once and passed around explicitly; there is no ambient global
// client handle to re-derive on state changes.
type Service struct {
	client               ledger.Client
	signer               submit.Signer
	programID            ledger.Address
	composer             *program.Composer
	submitter            *submit.Submitter
	aggregator           *aggregate.Aggregator
	scorer               *confidence.Scorer
	dishIdentities       *session.DishIdentityCache
	deterministicDishIDs bool
}

type Option func(*Service)

// WithScorer points review submissions at a confidence-scoring endpoint.
func WithScorer(scorer *confidence.Scorer) Option {
	return func(s *Service) { s.scorer = scorer }
}

// WithConfirmTimeout overrides the 30-second confirmation race window.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Service) { s.submitter.WithConfirmTimeout(d) }
}

// WithDeterministicDishIdentities derives dish identities from
// (catalog id, name) instead of minting session-scoped ones, so dish
// counters survive reloads.
func WithDeterministicDishIdentities() Option {
	return func(s *Service) { s.deterministicDishIDs = true }
}

func NewService(client ledger.Client, signer submit.Signer, programID ledger.Address, opts ...Option) *Service {
	s := &Service{
		client:         client,
		signer:         signer,
		programID:      programID,
		composer:       program.NewComposer(programID, client),
		submitter:      submit.NewSubmitter(client, signer),
		aggregator:     aggregate.NewAggregator(client, programID),
		dishIdentities: session.NewDishIdentityCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errSignerRequired = errors.New("no signer is connected")

// BookTable composes, signs and submits one atomic booking transaction.
// An "already processed" rejection is recovered into a success outcome:
// duplicate detection at the transport layer means the original submission
// very likely landed.
func (s *Service) BookTable(ctx context.Context, intent models.BookingIntent) (models.SubmissionOutcome, error) {
	if s.signer == nil {
		return models.SubmissionOutcome{}, classify.Wrap(classify.SignerUnavailable, errSignerRequired)
	}
	user := s.signer.Identity()

	restaurant, err := derive.RestaurantIdentity(intent.RestaurantID)
	if err != nil {
		return models.SubmissionOutcome{}, err
	}

	plan := program.BookingPlan{
		User:            user,
		Restaurant:      restaurant,
		PaymentLamports: intent.PaymentLamports,
	}
	if intent.PaymentLamports > 0 {
		dest, err := ledger.AddressFromBase58(intent.PaymentDestination)
		if err != nil {
			return models.SubmissionOutcome{}, classify.Wrap(classify.InvalidDestination, err)
		}
		plan.PaymentDestination = dest
	}
	for _, sel := range intent.Dishes {
		identity, err := s.dishIdentity(sel)
		if err != nil {
			return models.SubmissionOutcome{}, err
		}
		plan.Dishes = append(plan.Dishes, program.DishOrder{Identity: identity, Name: sel.Name})
	}

	ops, err := s.composer.ComposeBooking(ctx, plan)
	if err != nil {
		return models.SubmissionOutcome{}, err
	}
	return s.submitRecovered(ctx, ops)
}

// SubmitReview scores the review, then composes and submits it. Scoring
// fails closed: a reachable endpoint that rejects the review stops the
// submission, while an unreachable endpoint falls back to the deterministic
// scorer.
func (s *Service) SubmitReview(ctx context.Context, req models.ReviewRequest) (models.SubmissionOutcome, error) {
	if s.signer == nil {
		return models.SubmissionOutcome{}, classify.Wrap(classify.SignerUnavailable, errSignerRequired)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return models.SubmissionOutcome{}, classify.Wrap(classify.InvalidRating, fmt.Errorf("rating %d is out of range", req.Rating))
	}
	user := s.signer.Identity()

	restaurant, err := derive.RestaurantIdentity(req.RestaurantID)
	if err != nil {
		return models.SubmissionOutcome{}, err
	}

	scoreReq := confidence.ScoreRequest{
		ReviewText: req.Text,
		StarRating: req.Rating,
		VisitCount: s.visitCount(ctx, user, restaurant),
	}
	level, err := s.scorer.Score(ctx, scoreReq)
	if err != nil {
		if !errors.Is(err, confidence.ErrEndpointUnavailable) {
			return models.SubmissionOutcome{}, err
		}
		level = confidence.Fallback(scoreReq)
		slog.Warn("confidence endpoint unavailable, using fallback scorer", "level", level)
	}

	ops, err := s.composer.ComposeReview(ctx, program.ReviewPlan{
		User:            user,
		Restaurant:      restaurant,
		Rating:          req.Rating,
		Text:            req.Text,
		ConfidenceLevel: level,
	})
	if err != nil {
		return models.SubmissionOutcome{}, err
	}
	return s.submitRecovered(ctx, ops)
}

// Dashboard aggregates the connected user's records into a renderable view.
// It degrades rather than fails: aggregation errors produce an empty view.
func (s *Service) Dashboard(ctx context.Context) (models.DashboardView, error) {
	if s.signer == nil {
		return models.DashboardView{}, classify.Wrap(classify.SignerUnavailable, errSignerRequired)
	}
	return s.aggregator.Dashboard(ctx, s.signer.Identity()), nil
}

func (s *Service) submitRecovered(ctx context.Context, ops []program.Operation) (models.SubmissionOutcome, error) {
	outcome, err := s.submitter.Submit(ctx, ops)
	if err != nil {
		if classify.IsSuccessLike(err) {
			slog.Info("submission already processed, treating as success", "tracking_id", outcome.TrackingID)
			return models.SubmissionOutcome{TrackingID: outcome.TrackingID}, nil
		}
		return models.SubmissionOutcome{}, err
	}
	return models.SubmissionOutcome{TrackingID: outcome.TrackingID, Pending: outcome.Pending}, nil
}

func (s *Service) dishIdentity(sel models.DishSelection) (ledger.Address, error) {
	if sel.Identity != "" {
		return ledger.AddressFromBase58(sel.Identity)
	}
	if s.deterministicDishIDs {
		return session.DeriveDishIdentity(sel.CatalogID, sel.Name)
	}
	return s.dishIdentities.Identity(sel.Name)
}

// visitCount reads the user's current visit counter for a restaurant; it is
// only an input to confidence scoring, so any failure degrades to zero.
func (s *Service) visitCount(ctx context.Context, user, restaurant ledger.Address) uint64 {
	addr, err := derive.UserStatsAddress(s.programID, user, restaurant)
	if err != nil {
		return 0
	}
	account, err := s.client.AccountInfo(ctx, addr)
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			slog.Warn("visit count lookup failed", "address", addr.String(), "reason", err.Error())
		}
		return 0
	}
	stats, err := records.DecodeUserStats(account.Data)
	if err != nil {
		slog.Warn("visit count record is malformed", "address", addr.String(), "reason", err.Error())
		return 0
	}
	return stats.VisitCount
}
