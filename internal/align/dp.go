package align

// BandWidth returns max(32, 0.25 * max(bookLen, asrLen)) per spec.md §4.4.
func BandWidth(bookLen, asrLen int) int {
	maxLen := bookLen
	if asrLen > maxLen {
		maxLen = asrLen
	}
	w := int(0.25 * float64(maxLen))
	if w < 32 {
		w = 32
	}
	return w
}

// move tags which predecessor cell a DP transition came from, ordered so
// that iterating candidates in declaration order realizes the tie-break
// match > sub > del > ins (spec.md §4.4).
type move int

const (
	moveNone move = iota
	moveMatch
	moveSub
	moveDel // consumes a book token, no ASR token
	moveIns // consumes an ASR token, no book token
)

const negInf = -1e18

// Align runs banded Needleman-Wunsch over book[0..len(book)) and
// asr[0..len(asr)), returning WordOps with book/asr indices relative to the
// window (the caller offsets them to global indices). Emits ops in
// book-ascending order.
func Align(book []BookToken, asrTok []AsrToken, costs Costs) []WordOp {
	nb := len(book)
	na := len(asrTok)
	band := BandWidth(nb, na)

	// dp[i][j] = best cumulative weight aligning book[0:i] with asr[0:j].
	dp := make([][]float64, nb+1)
	bt := make([][]move, nb+1)
	for i := range dp {
		dp[i] = make([]float64, na+1)
		bt[i] = make([]move, na+1)
		for j := range dp[i] {
			dp[i][j] = negInf
		}
	}
	dp[0][0] = 0

	inBand := func(i, j int) bool {
		d := i - j
		if d < 0 {
			d = -d
		}
		return d <= band
	}

	for i := 0; i <= nb; i++ {
		jLo := i - band
		if jLo < 0 {
			jLo = 0
		}
		jHi := i + band
		if jHi > na {
			jHi = na
		}
		for j := jLo; j <= jHi; j++ {
			if i == 0 && j == 0 {
				continue
			}
			best := negInf
			bestMove := moveNone

			// Order candidates match, sub, del, ins so that equal-weight
			// ties favor the earlier one (spec.md §4.4 tie-break order).
			if i > 0 && j > 0 && inBand(i-1, j-1) && dp[i-1][j-1] > negInf {
				tok := book[i-1]
				a := asrTok[j-1]
				if tok.Normalized == a.Normalized {
					w := dp[i-1][j-1] + 1.0
					if w > best {
						best, bestMove = w, moveMatch
					}
				} else {
					w := dp[i-1][j-1] - costs.CostSub
					if w > best {
						best, bestMove = w, moveSub
					}
				}
			}
			if i > 0 && inBand(i-1, j) && dp[i-1][j] > negInf {
				w := dp[i-1][j] - costs.CostDel
				if w > best {
					best, bestMove = w, moveDel
				}
			}
			if j > 0 && inBand(i, j-1) && dp[i][j-1] > negInf {
				w := dp[i][j-1] - costs.CostIns
				if w > best {
					best, bestMove = w, moveIns
				}
			}
			dp[i][j] = best
			bt[i][j] = bestMove
		}
	}

	// Traceback from (nb, na).
	var ops []WordOp
	i, j := nb, na
	for i > 0 || j > 0 {
		m := bt[i][j]
		switch m {
		case moveMatch:
			ops = append(ops, scoredOp(Match, int64(i-1), int64(j-1), book[i-1], asrTok[j-1]))
			i--
			j--
		case moveSub:
			ops = append(ops, scoredOp(Sub, int64(i-1), int64(j-1), book[i-1], asrTok[j-1]))
			i--
			j--
		case moveDel:
			ops = append(ops, WordOp{Kind: Del, BookIdx: int64(i - 1), AsrIdx: -1})
			i--
		case moveIns:
			ops = append(ops, WordOp{Kind: Ins, BookIdx: -1, AsrIdx: int64(j - 1)})
			j--
		default:
			// Out-of-band fallback: consume whichever axis remains, never
			// dropping tokens silently.
			if i > 0 {
				ops = append(ops, WordOp{Kind: Del, BookIdx: int64(i - 1), AsrIdx: -1})
				i--
			} else if j > 0 {
				ops = append(ops, WordOp{Kind: Ins, BookIdx: -1, AsrIdx: int64(j - 1)})
				j--
			} else {
				i, j = 0, 0
			}
		}
	}

	// Reverse into book-ascending order.
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

func scoredOp(kind OpKind, bookIdx, asrIdx int64, book BookToken, asrTok AsrToken) WordOp {
	if kind == Match {
		return WordOp{Kind: Match, BookIdx: bookIdx, AsrIdx: asrIdx, Score: 1.0}
	}
	maxLen := len(book.Normalized)
	if len(asrTok.Normalized) > maxLen {
		maxLen = len(asrTok.Normalized)
	}
	score := 0.0
	if maxLen > 0 {
		dist := levenshtein(book.Normalized, asrTok.Normalized)
		ratio := float64(dist) / float64(maxLen)
		if ratio > 1 {
			ratio = 1
		}
		score = 1 - ratio
	}
	if book.Phoneme != "" && asrTok.Phoneme != "" {
		bonus := phonemeAgreement(book.Phoneme, asrTok.Phoneme)
		score = score + (1-score)*bonus
		if score > 1 {
			score = 1
		}
	}
	return WordOp{Kind: Sub, BookIdx: bookIdx, AsrIdx: asrIdx, Score: score}
}

// phonemeAgreement returns a [0,1] similarity between two phoneme strings
// using the same normalized Levenshtein ratio as text substitution scoring.
func phonemeAgreement(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein(a, b)
	ratio := float64(dist) / float64(maxLen)
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

// levenshtein computes edit distance on the runes of a, b.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	na, nb := len(ra), len(rb)
	if na == 0 {
		return nb
	}
	if nb == 0 {
		return na
	}
	prev := make([]int, nb+1)
	curr := make([]int, nb+1)
	for j := 0; j <= nb; j++ {
		prev[j] = j
	}
	for i := 1; i <= na; i++ {
		curr[0] = i
		for j := 1; j <= nb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[nb]
}
