package models

import "errors"

// Domain error taxonomy. Command handlers map these to user-facing
// rejection messages; every rejection leaves state unchanged.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateWager     = errors.New("wager already placed for this round")
	ErrRoundNotOpen       = errors.New("round is not open")
	ErrRoundAlreadyOpen   = errors.New("round already open")
	ErrRoundNotSettleable = errors.New("round is not locked for settlement")
	ErrNoExistingWager    = errors.New("no existing wager to increase")
	ErrAlreadyClaimed     = errors.New("daily bonus already claimed")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrInvalidAmount      = errors.New("invalid point amount")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnknownPlayer      = errors.New("unknown player")
)
