package services

import "errors"

// Domain errors surfaced by the services. Handlers translate them to status
// families: forbidden → 403, lost-race conflicts → 409, the rest → 400.
// Not-found sentinels live in the repositories package next to the queries
// that produce them.
var (
	ErrForbidden = errors.New("forbidden")

	// Listing lifecycle.
	ErrBumpCooldown  = errors.New("bump cooldown has not elapsed")
	ErrInvalidStatus = errors.New("invalid status value")

	// Negotiation.
	ErrNotNegotiable       = errors.New("listing does not accept price offers")
	ErrSelfOffer           = errors.New("cannot make an offer on your own listing")
	ErrListingNotAvailable = errors.New("listing is not available for trade")
	ErrInvalidPrice        = errors.New("offered price must be positive")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrAlreadyResolved     = errors.New("price offer already resolved")
	ErrInvalidDecision     = errors.New("invalid offer decision")

	// Conversation.
	ErrSelfChat        = errors.New("cannot start a chat on your own listing")
	ErrAlreadyReserved = errors.New("chat room already reserved")
	ErrNotReserved     = errors.New("chat room is not reserved")

	// Messaging.
	ErrInvalidKind  = errors.New("invalid message kind")
	ErrEmptyMessage = errors.New("message has no content")

	// Validation.
	ErrItemNameRequired    = errors.New("item name is required")
	ErrDescriptionRequired = errors.New("description is required")
)
