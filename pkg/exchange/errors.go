package exchange

import "errors"

var (
	// ErrUnknownSymbol is returned by Submit for unregistered symbols.
	// Nothing is mutated when it fires.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrMarketClosed is returned once Close has been called; a Market is
	// not reusable.
	ErrMarketClosed = errors.New("market closed")

	// ErrMarketStarted is returned by Start when called twice.
	ErrMarketStarted = errors.New("market already started")
)
