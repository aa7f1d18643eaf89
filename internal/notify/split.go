package notify

import "unicode/utf8"

// SplitBlocks greedily packs blocks into messages no longer than maxLen,
// separated by blank lines. Blocks are atomic: a block that would overflow
// the current message starts the next one, and input order is preserved
// across messages. The final in-progress message is always flushed, so a
// non-empty input never yields zero messages. A single block longer than
// maxLen is truncated rather than split.
func SplitBlocks(blocks []string, maxLen int) []string {
	var chunks []string
	var cur string
	started := false

	for _, b := range blocks {
		if len(b) > maxLen {
			b = truncate(b, maxLen)
		}
		switch {
		case !started:
			cur = b
			started = true
		case len(cur)+len(blockSeparator)+len(b) < maxLen:
			cur += blockSeparator + b
		default:
			chunks = append(chunks, cur)
			cur = b
		}
	}

	if started {
		chunks = append(chunks, cur)
	}
	return chunks
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
