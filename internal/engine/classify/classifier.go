// Package classify assigns an essential/non-essential spending label to
// banking transactions using an injected, tunable ruleset.
package classify

import (
	"github.com/unifin/unifin/internal/engine/record"
)

// Classifier applies the rule-based decision procedure to transactions.
// It is stateless after construction and safe for concurrent use.
type Classifier struct {
	essentialCategories    matcher
	nonEssentialCategories matcher
	essentialKeywords      matcher
	nonEssentialKeywords   matcher
}

// NewClassifier compiles a ruleset into a classifier. A nil ruleset uses
// the built-in defaults.
func NewClassifier(rs *Ruleset) *Classifier {
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &Classifier{
		essentialCategories:    newMatcher(rs.EssentialCategories),
		nonEssentialCategories: newMatcher(rs.NonEssentialCategories),
		essentialKeywords:      newMatcher(rs.EssentialKeywords),
		nonEssentialKeywords:   newMatcher(rs.NonEssentialKeywords),
	}
}

// Classify returns the transaction with Category and Subcategory assigned.
// Rules apply in order, first match wins:
//
//  1. credits and deposits are income, exempt from the essential split
//  2. provider category in the non-essential set
//  3. provider category in the essential set
//  4. merchant name matches a non-essential keyword
//  5. merchant name matches an essential keyword
//  6. uncategorized, never guessed, so totals stay honest
//
// Category matches beat keyword matches, and the non-essential keyword list
// is checked before the essential one, so "grocery store bar" resolves the
// same way every run.
func (c *Classifier) Classify(tx record.Transaction) record.Transaction {
	if !tx.IsDebit() {
		tx.Category = record.SpendIncome
		tx.Subcategory = ""
		return tx
	}

	if sub := c.nonEssentialCategories.match(tx.RawCategory); sub != "" {
		tx.Category = record.SpendNonEssential
		tx.Subcategory = sub
		return tx
	}

	if sub := c.essentialCategories.match(tx.RawCategory); sub != "" {
		tx.Category = record.SpendEssential
		tx.Subcategory = sub
		return tx
	}

	if sub := c.nonEssentialKeywords.match(tx.Merchant); sub != "" {
		tx.Category = record.SpendNonEssential
		tx.Subcategory = sub
		return tx
	}

	if sub := c.essentialKeywords.match(tx.Merchant); sub != "" {
		tx.Category = record.SpendEssential
		tx.Subcategory = sub
		return tx
	}

	tx.Category = record.SpendUncategorized
	tx.Subcategory = ""
	return tx
}

// ClassifyAll classifies every transaction in place and returns the slice
func (c *Classifier) ClassifyAll(txs []record.Transaction) []record.Transaction {
	for i := range txs {
		txs[i] = c.Classify(txs[i])
	}
	return txs
}
