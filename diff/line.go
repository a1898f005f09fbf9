package diff

import "strings"

// LineOpKind classifies a single line in a line diff.
type LineOpKind string

const (
	LineUnchanged LineOpKind = "unchanged"
	LineAdded     LineOpKind = "added"
	LineRemoved   LineOpKind = "removed"
)

// LineOp describes one line of a line-level diff. Line numbers are 1-based;
// removed lines carry only an old line number, added lines only a new one,
// unchanged lines both.
type LineOp struct {
	Kind          LineOpKind `json:"kind"`
	Content       string     `json:"content"`
	OldLineNumber int        `json:"old_line_number,omitempty"`
	NewLineNumber int        `json:"new_line_number,omitempty"`
}

// DiffLines computes the minimal-edit line alignment of two texts using an
// LCS over their newline-split lines. Between consecutive matched lines all
// skipped old lines are emitted as removed (in old order) followed by all
// skipped new lines as added (in new order).
//
// Tie-break: when backtracking through the LCS table and both directions
// score equally, the move in the old sequence wins. This determines whether
// an ambiguous diff reports removed-then-added or added-then-removed and
// must not change.
func DiffLines(oldText, newText string) []LineOp {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	m, n := len(oldLines), len(newLines)

	// dp[i][j] = length of the LCS of the first i old lines and first j new lines
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack from (m,n) recovering matched pairs in reverse.
	type match struct{ oi, nj int }
	var matches []match
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case oldLines[i-1] == newLines[j-1]:
			matches = append(matches, match{i - 1, j - 1})
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(matches)-1; l < r; l, r = l+1, r-1 {
		matches[l], matches[r] = matches[r], matches[l]
	}

	ops := make([]LineOp, 0, m+n)
	oldIdx, newIdx := 0, 0
	oldNum, newNum := 1, 1

	flushRemoved := func(upto int) {
		for ; oldIdx < upto; oldIdx++ {
			ops = append(ops, LineOp{Kind: LineRemoved, Content: oldLines[oldIdx], OldLineNumber: oldNum})
			oldNum++
		}
	}
	flushAdded := func(upto int) {
		for ; newIdx < upto; newIdx++ {
			ops = append(ops, LineOp{Kind: LineAdded, Content: newLines[newIdx], NewLineNumber: newNum})
			newNum++
		}
	}

	for _, mt := range matches {
		flushRemoved(mt.oi)
		flushAdded(mt.nj)
		ops = append(ops, LineOp{
			Kind:          LineUnchanged,
			Content:       oldLines[oldIdx],
			OldLineNumber: oldNum,
			NewLineNumber: newNum,
		})
		oldIdx++
		newIdx++
		oldNum++
		newNum++
	}
	flushRemoved(m)
	flushAdded(n)

	return ops
}

// splitLines treats the empty string as zero lines, not one empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
