package delphi

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

// Context is the type passed to all handlers and decorators.
type Context = context.Context

type contextKey int // local to the delphi module

const (
	contextKeyHeight contextKey = iota
	contextKeyBlockTime
	contextKeyChainID
	contextKeyLogger
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// WithHeight sets the block height for the context.
// It panics if the height was already set.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := ctx.Value(contextKeyHeight).(int64); ok {
		panic("already have height set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height.
// If no height was declared, returns false.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the time of the block this context is executed in.
// It panics if the time was already set.
func WithBlockTime(ctx Context, t time.Time) Context {
	if _, ok := ctx.Value(contextKeyBlockTime).(time.Time); ok {
		panic("already have block time set")
	}
	return context.WithValue(ctx, contextKeyBlockTime, t.UTC())
}

// BlockTime returns the time of the block the context is executed in. An
// error is returned if the time was not declared. All deadlines are compared
// against this value, never against the wall clock.
func BlockTime(ctx Context) (time.Time, error) {
	t, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("block time not present in the context")
	}
	return t, nil
}

// WithChainID sets the chain id for the context.
// It panics if the chain id was already set or is not valid.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("already have chain id set")
	}
	if !IsValidChainID(chainID) {
		panic(fmt.Sprintf("invalid chain id: %q", chainID))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the chain id set for the context.
// It panics if the chain id was never set.
func GetChainID(ctx Context) string {
	val, ok := ctx.Value(contextKeyChainID).(string)
	if !ok {
		panic("chain id not present in the context")
	}
	return val
}

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// IsExpired returns true if given time is in the past as compared to the "now"
// as declared for the block. Expiration is inclusive, meaning that if current
// time is equal to the expiration time than this function returns true.
//
// This function panics if the block time is not provided in the context. This
// must never happen. The panic is here to prevent from broken setup to be
// processing data incorrectly.
func IsExpired(ctx Context, t UnixTime) bool {
	return t <= Now(ctx)
}

// InTheFuture returns true if given time is after the block time declared in
// the context. Equal times are not in the future.
func InTheFuture(ctx Context, t UnixTime) bool {
	return t > Now(ctx)
}

// Now returns the block time declared in the context as UnixTime.
// It panics if the block time is missing.
func Now(ctx Context) UnixTime {
	blockNow, err := BlockTime(ctx)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return AsUnixTime(blockNow)
}
