package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/vault"
)

// DiffLine is one line of a vault comparison
type DiffLine struct {
	Op   diffmatchpatch.Operation
	Text string
}

// Diff compares the entries of two vaults line by line. Values are never
// shown; each is replaced by a keyed fingerprint that is only comparable
// within one call.
func Diff(a, b *vault.DatabaseFile) ([]DiffLine, error) {
	key, err := crypto.GenerateRandom(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate fingerprint key: %w", err)
	}
	defer crypto.ClearBytes(key)

	left := describe(a, key)
	right := describe(b, key)

	dmp := diffmatchpatch.New()
	ca, cb, lineArray := dmp.DiffLinesToChars(left, right)
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []DiffLine
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: d.Type, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out, nil
}

// Changed reports whether any line differs
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}

// FormatDiff renders lines with "+", "-" and " " prefixes
func FormatDiff(lines []DiffLine) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// describe lists entries ordered by id, one field per line
func describe(db *vault.DatabaseFile, key []byte) string {
	entries := db.Entries()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	var sb strings.Builder
	for _, e := range entries {
		short := e.ID
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(&sb, "[%s] %s\n", e.ID, e.EntryType)
		for _, f := range vault.Fields() {
			var v string
			if f == vault.FieldValue {
				v = fingerprint(key, e.Value)
			} else {
				v, _ = f.Get(&e)
			}
			fmt.Fprintf(&sb, "%s.%s: %s\n", short, strings.ToLower(f.String()), v)
		}
		for _, file := range e.Files {
			fmt.Fprintf(&sb, "%s.file: %s %s\n", short, file.Name, fingerprint(key, vault.NewSecret(file.Content)))
		}
	}
	return sb.String()
}

func fingerprint(key []byte, v vault.Secret) string {
	if v.Len() == 0 {
		return "(empty)"
	}
	mac := hmac.New(sha256.New, key)
	v.WriteTo(mac)
	return "#" + hex.EncodeToString(mac.Sum(nil)[:6])
}
