// Package sequence issues procedure codes, flow sequence numbers and public
// tracking codes.
//
// Procedure numbers come from a per (agency, year) counter that the store
// increments atomically inside the caller's transaction, so concurrent
// registrations never share or skip a number. Flow sequences are read inside
// the same transaction that inserts the flow; the store locks the procedure
// row first so two transitions on one procedure cannot read the same maximum.
package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	id "tramite/pkg/domain"
)

// TrackingAlphabet omits 0/O and 1/I so codes survive being read aloud.
const TrackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TrackingCodeLength is the number of characters in a tracking code.
const TrackingCodeLength = 6

// Store is the persistence the allocator needs. All calls run inside the
// caller's transaction when ctx carries one.
type Store interface {
	IncrementProcedureCounter(ctx context.Context, agencyID id.AgencyID, year int) (int, error)
	MaxNormalSequence(ctx context.Context, procedureID id.ProcedureID) (int, error)
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
}

// Allocator issues identifiers backed by a Store.
type Allocator struct {
	store  Store
	random io.Reader
}

type Option func(*Allocator)

// WithRandom replaces the entropy source for tracking codes.
func WithRandom(r io.Reader) Option {
	return func(a *Allocator) {
		a.random = r
	}
}

func New(store Store, opts ...Option) *Allocator {
	a := &Allocator{store: store, random: rand.Reader}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FormatProcedureCode renders NNNNNN-YYYY.
func FormatProcedureCode(number, year int) string {
	return fmt.Sprintf("%06d-%d", number, year)
}

// NextProcedureCode increments the (agency, year) counter and formats it.
func (a *Allocator) NextProcedureCode(ctx context.Context, agencyID id.AgencyID, year int) (string, error) {
	n, err := a.store.IncrementProcedureCounter(ctx, agencyID, year)
	if err != nil {
		return "", fmt.Errorf("increment procedure counter: %w", err)
	}
	return FormatProcedureCode(n, year), nil
}

// NextFlowSequence is one past the highest NORMAL sequence, or 1.
func (a *Allocator) NextFlowSequence(ctx context.Context, procedureID id.ProcedureID) (int, error) {
	maxSeq, err := a.store.MaxNormalSequence(ctx, procedureID)
	if err != nil {
		return 0, fmt.Errorf("max flow sequence: %w", err)
	}
	return maxSeq + 1, nil
}

// NextTrackingCode draws codes until one is unused. The keyspace is 32^6, so
// the loop ends quickly in practice; ctx bounds it otherwise.
func (a *Allocator) NextTrackingCode(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := GenerateTrackingCode(a.random)
		if err != nil {
			return "", err
		}
		exists, err := a.store.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

// GenerateTrackingCode draws one code from r without modulo bias.
func GenerateTrackingCode(r io.Reader) (string, error) {
	out := make([]byte, 0, TrackingCodeLength)
	buf := make([]byte, TrackingCodeLength)
	for len(out) < TrackingCodeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			// 256 is a multiple of 32, so masking the low five bits is uniform.
			out = append(out, TrackingAlphabet[b&0x1f])
			if len(out) == TrackingCodeLength {
				break
			}
		}
	}
	return string(out), nil
}
