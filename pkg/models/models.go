// Package models holds the caller-facing types of the booking client:
// intents coming in from the UI and the dashboard view going back out.
// Addresses cross this boundary in their base58 text form.
package models

// DishSelection names one dish a user wants to pre-order. Identity, when
// set, is the dish's base58 identity; otherwise the client assigns one
// (session-scoped or derived from CatalogID, depending on configuration).
type DishSelection struct {
	CatalogID int    `json:"catalogId"`
	Name      string `json:"name"`
	Identity  string `json:"identity,omitempty"`
}

// BookingIntent is what the UI hands the client when the user books a table.
type BookingIntent struct {
	RestaurantID       int             `json:"restaurantId"`
	Dishes             []DishSelection `json:"dishes"`
	PaymentLamports    uint64          `json:"paymentLamports"`
	PaymentDestination string          `json:"paymentDestination,omitempty"`
}

// ReviewRequest is what the UI hands the client when the user reviews a
// restaurant. The confidence level is computed, never supplied.
type ReviewRequest struct {
	RestaurantID int    `json:"restaurantId"`
	Rating       uint8  `json:"rating"`
	Text         string `json:"text"`
}

// SubmissionOutcome reports one submission. Pending means confirmation did
// not arrive inside the race window; the transaction may still land, and
// TrackingID lets the user verify status out-of-band.
type SubmissionOutcome struct {
	TrackingID string `json:"trackingId"`
	Pending    bool   `json:"pending"`
}

// SubjectSummary is the dashboard entry for one restaurant the user visited.
type SubjectSummary struct {
	VisitCount    uint64 `json:"visitCount"`
	RecordAddress string `json:"recordAddress"`
}

// DishAggregate collapses every dish record sharing a display name into one
// dashboard entry. ContributingDishIDs is deduplicated by identity.
type DishAggregate struct {
	Count                 uint64   `json:"count"`
	ContributingAddresses []string `json:"contributingAddresses"`
	ContributingDishIDs   []string `json:"contributingDishIds"`
}

// DashboardView is the per-user view the UI renders. Subjects is keyed by
// restaurant identity, DishesByName by dish display name.
type DashboardView struct {
	Subjects     map[string]SubjectSummary `json:"subjects"`
	DishesByName map[string]DishAggregate  `json:"dishesByName"`
}
