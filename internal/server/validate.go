package server

import (
	"fmt"
	"strconv"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-wallet-sync/internal/storage"
	"solana-wallet-sync/internal/trades"
)

const (
	minLookbackDays = 1
	maxLookbackDays = 90
)

// validateWallet checks that addr is a base58-encoded 32-byte ed25519
// curve point. Program-derived addresses are off-curve and rejected:
// they never hold user trading activity.
func validateWallet(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("wallet %q is not valid base58", addr)
	}
	if len(raw) != 32 {
		return fmt.Errorf("wallet %q decodes to %d bytes, want 32", addr, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("wallet %q is not an ed25519 curve point", addr)
	}
	return nil
}

// validateTokenAddress checks base58 shape only. Mint accounts may be
// program-derived, so no curve check here.
func validateTokenAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("token address %q is not valid base58", addr)
	}
	if len(raw) != 32 {
		return fmt.Errorf("token address %q decodes to %d bytes, want 32", addr, len(raw))
	}
	return nil
}

// validateLookbackDays clamps the requested sync window, defaulting when
// unset.
func validateLookbackDays(days int) (int, error) {
	if days == 0 {
		return 0, nil // syncer applies its default
	}
	if days < minLookbackDays || days > maxLookbackDays {
		return 0, fmt.Errorf("days must be between %d and %d, got %d", minLookbackDays, maxLookbackDays, days)
	}
	return days, nil
}

// parseLookbackDays parses the days query parameter, defaulting to the
// standard lookback when absent.
func parseLookbackDays(raw string) (int, error) {
	if raw == "" {
		return trades.DefaultLookbackDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("days must be an integer, got %q", raw)
	}
	if days < minLookbackDays || days > maxLookbackDays {
		return 0, fmt.Errorf("days must be between %d and %d, got %d", minLookbackDays, maxLookbackDays, days)
	}
	return days, nil
}

// validateSort normalizes sort parameters, defaulting to last_trade DESC.
func validateSort(sortBy, direction string) (string, storage.SortDirection, error) {
	if sortBy == "" {
		sortBy = storage.SortByLastTrade
	}
	if !storage.ValidSortField(sortBy) {
		return "", "", fmt.Errorf("unsupported sort field %q", sortBy)
	}

	dir := storage.SortDesc
	switch direction {
	case "", "desc", "DESC":
	case "asc", "ASC":
		dir = storage.SortAsc
	default:
		return "", "", fmt.Errorf("unsupported sort direction %q", direction)
	}
	return sortBy, dir, nil
}
