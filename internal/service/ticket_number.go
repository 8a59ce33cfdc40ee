package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/repository"
)

// DefaultTicketPrefix is used when no prefix is configured.
const DefaultTicketPrefix = "TKT"

// ParseTicketNumber recovers the numeric suffix from a stored ticket
// number. Both the current bare form (TKT42) and the legacy dashed form
// with an embedded year (TKT-2025-00042) parse to the same integer.
func ParseTicketNumber(number, prefix string) (int64, error) {
	rest := strings.TrimPrefix(number, prefix)
	if rest == number {
		return 0, fmt.Errorf("ticket number %q missing prefix %q", number, prefix)
	}
	rest = strings.Trim(rest, "-")
	if idx := strings.LastIndex(rest, "-"); idx >= 0 {
		rest = rest[idx+1:]
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ticket number %q: %w", number, err)
	}
	return n, nil
}

// FormatTicketNumber renders a sequence value with no zero padding, so
// widths grow naturally (TKT9 -> TKT10).
func FormatTicketNumber(prefix string, n int64) string {
	return prefix + strconv.FormatInt(n, 10)
}

// NextTicketNumber computes the next identifier from the latest persisted
// one. The read runs on the caller's querier: during ticket creation that
// is the insert transaction, and the unique index on ticket_number plus a
// retry closes the read-then-insert race. A lookup or parse failure falls
// back to a timestamp-derived suffix so creation is never blocked, trading
// guaranteed uniqueness for availability.
func NextTicketNumber(ctx context.Context, tickets repository.TicketRepository, prefix string) string {
	if prefix == "" {
		prefix = DefaultTicketPrefix
	}
	latest, err := tickets.LatestTicketNumber(ctx, prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FormatTicketNumber(prefix, 1)
		}
		return fallbackTicketNumber(prefix)
	}
	n, err := ParseTicketNumber(latest, prefix)
	if err != nil {
		return fallbackTicketNumber(prefix)
	}
	return FormatTicketNumber(prefix, n+1)
}

// fallbackTicketNumber derives a collision-resistant identifier from the
// last 6 digits of a millisecond timestamp. Uniqueness is probabilistic.
func fallbackTicketNumber(prefix string) string {
	millis := time.Now().UnixMilli()
	return prefix + strconv.FormatInt(millis%1000000, 10)
}
