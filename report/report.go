// Package report turns rendezvous results into persistable, printable
// reports.
//
// A Report carries a random run id and a blake2b-256 digest over its own
// canonical JSON encoding (digest field empty), so a stored report can be
// checked for tampering or truncation after it is loaded back.
package report

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/blake2b"

	"chameneos/actor"
	"chameneos/color"
	"chameneos/rendezvous"
)

// ErrDigest is returned by Verify when a report does not match its digest.
var ErrDigest = errors.New("report: digest mismatch")

// Report is the durable record of one run.
type Report struct {
	ID          string                   `json:"id"`
	Group       string                   `json:"group"`
	Strategy    string                   `json:"strategy"`
	Seeds       []string                 `json:"seeds"`
	Colors      []string                 `json:"colors"`
	Counts      []actor.Counts           `json:"counts"`
	Meetings    uint64                   `json:"meetings"`
	Limit       uint64                   `json:"limit"`
	StartedAt   time.Time                `json:"started_at"`
	ElapsedNS   int64                    `json:"elapsed_ns"`
	CASFailures uint64                   `json:"cas_failures"`
	Backoffs    uint64                   `json:"backoffs"`
	Workers     []rendezvous.WorkerStats `json:"workers,omitempty"`
	Pairs       [][]uint64               `json:"pairs,omitempty"`
	TapDropped  uint64                   `json:"tap_dropped,omitempty"`
	Digest      string                   `json:"digest"`
}

// New builds a sealed report for res. group is a free-form label such as
// "small" or "large".
func New(group string, started time.Time, res *rendezvous.Result) (*Report, error) {
	r := &Report{
		ID:          uuid.NewString(),
		Group:       group,
		Strategy:    res.Strategy.String(),
		Seeds:       color.Names(res.Seeds),
		Colors:      color.Names(res.Colors),
		Counts:      append([]actor.Counts(nil), res.Counts...),
		Meetings:    res.Meetings,
		Limit:       res.Limit,
		StartedAt:   started.UTC(),
		ElapsedNS:   res.Elapsed.Nanoseconds(),
		CASFailures: res.CASFailures(),
		Backoffs:    res.Backoffs(),
		Workers:     res.Workers,
		Pairs:       res.Pairs,
		TapDropped:  res.TapDropped,
	}
	if err := r.Seal(); err != nil {
		return nil, err
	}
	return r, nil
}

// Elapsed returns the run duration.
func (r *Report) Elapsed() time.Duration {
	return time.Duration(r.ElapsedNS)
}

// TotalMeets sums per-actor meeting counts.
func (r *Report) TotalMeets() uint64 {
	var n uint64
	for _, c := range r.Counts {
		n += c.Meetings
	}
	return n
}

// Seal recomputes and stores the digest.
func (r *Report) Seal() error {
	d, err := r.digest()
	if err != nil {
		return err
	}
	r.Digest = d
	return nil
}

// Verify checks the stored digest against the report contents.
func (r *Report) Verify() error {
	d, err := r.digest()
	if err != nil {
		return err
	}
	if d != r.Digest {
		return fmt.Errorf("%w: run %s has %q, computed %q", ErrDigest, r.ID, r.Digest, d)
	}
	return nil
}

func (r *Report) digest() (string, error) {
	unsealed := *r
	unsealed.Digest = ""
	raw, err := sonnet.Marshal(&unsealed)
	if err != nil {
		return "", fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Marshal encodes r as JSON.
func Marshal(r *Report) ([]byte, error) {
	return sonnet.Marshal(r)
}

// Unmarshal decodes a JSON report and verifies its digest.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if err := r.Verify(); err != nil {
		return nil, err
	}
	return &r, nil
}
