// Package id mints record identifiers and formats the labels derived from them.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Generator mints ids. Engine functions take one so tests can make ids deterministic.
type Generator func() string

// New returns a random UUID string.
func New() string {
	return uuid.NewString()
}

// Sequence returns a Generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) Generator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// FormatInstallment returns the suffix for installment index of total: "(2/10)".
func FormatInstallment(index, total int) string {
	return fmt.Sprintf("(%d/%d)", index, total)
}

var installmentSuffix = regexp.MustCompile(`\s*\((\d+)/(\d+)\)$`)

// ParseInstallment extracts index and total from a description ending in "(i/N)".
// ok is false when there is no such suffix.
func ParseInstallment(description string) (base string, index, total int, ok bool) {
	m := installmentSuffix.FindStringSubmatchIndex(description)
	if m == nil {
		return description, 0, 0, false
	}
	index, _ = strconv.Atoi(description[m[2]:m[3]])
	total, _ = strconv.Atoi(description[m[4]:m[5]])
	if index < 1 || total < 1 || index > total {
		return description, 0, 0, false
	}
	return description[:m[0]], index, total, true
}

// InstallmentGroup derives the group id of installments read from statements. Rows of the
// same purchase on successive statements share card, base description and total, so they
// land in one group.
func InstallmentGroup(cardID, base string, total int) string {
	sum := sha256.Sum256([]byte(cardID + "\x00" + base + "\x00" + strconv.Itoa(total)))
	return "inst-" + hex.EncodeToString(sum[:8])
}

// RuleSetKey fingerprints a set of rule ids independent of order: the same rules always
// produce the same key, so a (key, month) marker can gate a generation run.
func RuleSetKey(ruleIDs []string) string {
	ids := slices.Clone(ruleIDs)
	slices.Sort(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "\x00")))
	return hex.EncodeToString(sum[:8])
}
