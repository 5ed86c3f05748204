// Package signal loads and validates recorded signal batches.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-strategy-lab/internal/domain"
)

// DefaultLookback is how far back a signal is assumed to have fired when
// its timestamp is missing or malformed. A bad timestamp never fails the
// batch.
const DefaultLookback = 7 * 24 * time.Hour

// ErrInvalidAddress is returned for strings that are not Solana mint
// addresses.
var ErrInvalidAddress = errors.New("invalid mint address")

// ParseTimestamp parses an ISO-8601 signal timestamp. A trailing 'Z' and
// explicit offsets are both accepted; the result is normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NormalizeTime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// EntryTime returns the parsed signal timestamp, falling back to the
// default lookback before now when parsing fails.
func EntryTime(rec *domain.SignalRecord, now func() time.Time) time.Time {
	t, err := ParseTimestamp(rec.SignalTimestamp)
	if err != nil {
		return domain.NormalizeTime(now().Add(-DefaultLookback))
	}
	return t
}

// ValidateAddress checks that an address is a well-formed Solana mint:
// base58, 32 bytes, and a valid ed25519 curve point. Mints minted from
// keypairs are always on-curve.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: got %d bytes, want 32", ErrInvalidAddress, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidAddress)
	}
	return nil
}

// LoadFile reads a JSON array of signal records. Records without an
// address are dropped; a surviving record with an invalid address is kept
// but reported, so one bad row cannot sink the batch.
func LoadFile(path string) ([]domain.SignalRecord, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read signals file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of signal records and returns the usable
// records plus warnings for suspect rows.
func Parse(data []byte) ([]domain.SignalRecord, []string, error) {
	var records []domain.SignalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("decode signals: %w", err)
	}

	var (
		out      []domain.SignalRecord
		warnings []string
	)
	for i, rec := range records {
		rec.Address = strings.TrimSpace(rec.Address)
		if rec.Address == "" {
			warnings = append(warnings, fmt.Sprintf("record %d: missing address, dropped", i))
			continue
		}
		if err := ValidateAddress(rec.Address); err != nil {
			warnings = append(warnings, fmt.Sprintf("record %d (%s): %v", i, rec.DisplaySymbol(), err))
		}
		out = append(out, rec)
	}
	return out, warnings, nil
}
