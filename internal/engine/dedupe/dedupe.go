// Package dedupe collapses duplicate records arising from overlapping sync
// windows or multiple linked accounts observing the same underlying data.
// It is a pure function over a batch: no I/O, no external state.
package dedupe

import (
	"strings"

	"github.com/unifin/unifin/internal/engine/record"
)

// Dedupe returns the batch with duplicates collapsed and the number of
// records dropped. On a key collision the most recently observed record is
// kept; ties prefer the record carrying merchant/category (or name) data,
// and the first-seen record after that. Applying Dedupe twice yields the
// same result as applying it once.
func Dedupe(batch record.Batch) (record.Batch, int) {
	out := record.Batch{}
	duplicates := 0

	out.Transactions, duplicates = dedupeTransactions(batch.Transactions, duplicates)
	out.Assets, duplicates = dedupeAssets(batch.Assets, duplicates)
	out.Positions, duplicates = dedupePositions(batch.Positions, duplicates)

	return out, duplicates
}

// transactionKey builds the composite identity for a transaction:
// account, calendar day, amount rounded to the currency minor unit, and
// the normalized merchant name. Two sync passes reporting the same
// underlying transaction produce the same key even when provider IDs differ.
func transactionKey(t record.Transaction) string {
	return t.AccountID + "|" +
		t.Timestamp.UTC().Format("2006-01-02") + "|" +
		t.Amount.Round(2).String() + "|" +
		normalizeMerchant(t.Merchant)
}

func assetKey(a record.Asset) string {
	return string(a.Source) + "|" + a.AccountID + "|" + strings.ToUpper(a.Symbol)
}

func positionKey(p record.Position) string {
	return string(p.Broker) + "|" + p.AccountID + "|" + strings.ToUpper(p.Symbol)
}

// normalizeMerchant lowercases, trims, and strips store-number suffixes and
// punctuation so "TRADER JOE'S #42" and "Trader Joes" collide.
func normalizeMerchant(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		}
	}
	s = b.String()
	// Drop a trailing store number ("trader joes 42" -> "trader joes")
	if idx := strings.LastIndex(s, " "); idx > 0 && isDigits(s[idx+1:]) {
		s = s[:idx]
	}
	return strings.Join(strings.Fields(s), " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dedupeTransactions(txs []record.Transaction, duplicates int) ([]record.Transaction, int) {
	seen := make(map[string]int, len(txs))
	out := make([]record.Transaction, 0, len(txs))

	for _, tx := range txs {
		key := transactionKey(tx)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, tx)
			continue
		}
		duplicates++
		if betterTransaction(tx, out[idx]) {
			out[idx] = tx
		}
	}
	return out, duplicates
}

// betterTransaction reports whether candidate should replace kept.
// Recency wins; on equal observation time the record with merchant or
// category data wins; otherwise the kept (first-seen) record stays.
func betterTransaction(candidate, kept record.Transaction) bool {
	if !candidate.ObservedAt.Equal(kept.ObservedAt) {
		return candidate.ObservedAt.After(kept.ObservedAt)
	}
	return richness(candidate.Merchant, candidate.RawCategory) > richness(kept.Merchant, kept.RawCategory)
}

func dedupeAssets(assets []record.Asset, duplicates int) ([]record.Asset, int) {
	seen := make(map[string]int, len(assets))
	out := make([]record.Asset, 0, len(assets))

	for _, a := range assets {
		key := assetKey(a)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, a)
			continue
		}
		duplicates++
		if betterAsset(a, out[idx]) {
			out[idx] = a
		}
	}
	return out, duplicates
}

func betterAsset(candidate, kept record.Asset) bool {
	if !candidate.ObservedAt.Equal(kept.ObservedAt) {
		return candidate.ObservedAt.After(kept.ObservedAt)
	}
	return richness(candidate.Name, priceMarker(candidate)) > richness(kept.Name, priceMarker(kept))
}

func priceMarker(a record.Asset) string {
	if a.UnitPrice.IsZero() {
		return ""
	}
	return "priced"
}

func dedupePositions(positions []record.Position, duplicates int) ([]record.Position, int) {
	seen := make(map[string]int, len(positions))
	out := make([]record.Position, 0, len(positions))

	for _, p := range positions {
		key := positionKey(p)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, p)
			continue
		}
		duplicates++
		if p.ObservedAt.After(out[idx].ObservedAt) {
			out[idx] = p
		}
	}
	return out, duplicates
}

// richness counts how many identifying fields a record carries
func richness(fields ...string) int {
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}
