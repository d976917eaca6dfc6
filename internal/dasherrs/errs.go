package dasherrs

import "errors"

var (
	ErrEmptyPortfolioName   = errors.New("empty portfolio name")
	ErrEmptySymbol          = errors.New("empty symbol")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrUnknownTransaction   = errors.New("unknown transaction kind")
)
