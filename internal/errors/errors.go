// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataUnavailable      = errors.New("market data unavailable")
	ErrStaleData            = errors.New("stale market data")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrInsufficientHistory  = errors.New("insufficient history for indicator window")
	ErrBudgetExceeded       = errors.New("daily budget exceeded")
	ErrPositionLimitReached = errors.New("maximum open positions reached")
	ErrDailyLossLimit       = errors.New("daily loss limit reached")
	ErrSignalTooWeak        = errors.New("signal strength below floor")
	ErrPositionNotFound     = errors.New("position not found")
	ErrPositionTerminal     = errors.New("position already in terminal state")
	ErrMarketClosed         = errors.New("market is closed")
	ErrDatabaseError        = errors.New("database error")
)

// Stage identifies the screening stage that rejected an instrument.
type Stage string

const (
	StageEligibility Stage = "eligibility"
	StageLiquidity   Stage = "liquidity"
	StageMovement    Stage = "movement"
	StageScoring     Stage = "scoring"
	StageSignals     Stage = "signals"
	StageRisk        Stage = "risk"
)

// RejectionError records why an instrument was dropped at a screening or
// signal stage. Rejections are reported to the caller, never logged here.
type RejectionError struct {
	Symbol string
	Stage  Stage
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rejected [%s] %s: %s: %v", e.Stage, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("rejected [%s] %s: %s", e.Stage, e.Symbol, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// NewRejection creates a new RejectionError.
func NewRejection(symbol string, stage Stage, reason string, err error) *RejectionError {
	return &RejectionError{
		Symbol: symbol,
		Stage:  stage,
		Reason: reason,
		Err:    err,
	}
}

// RiskError represents a risk limit violation.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Err     error
}

func (e *RiskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("risk violation [%s]: %v (current: %.2f, limit: %.2f)", e.Rule, e.Err, e.Current, e.Limit)
	}
	return fmt.Sprintf("risk violation [%s] (current: %.2f, limit: %.2f)", e.Rule, e.Current, e.Limit)
}

func (e *RiskError) Unwrap() error {
	return e.Err
}

// NewRiskError creates a new RiskError wrapping the violated sentinel.
func NewRiskError(rule string, current, limit float64, err error) *RiskError {
	return &RiskError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Err:     err,
	}
}

// DataError represents a data-quality error for one instrument.
type DataError struct {
	Symbol  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error %s: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error %s: %s", e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(symbol, message string, err error) *DataError {
	return &DataError{
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
