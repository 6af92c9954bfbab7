package ai

import "strings"

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
	thinkSpace    = " \t\r\n"
)

// ThinkTagSplitter separates inline <think>...</think> reasoning from answer
// text as it arrives in arbitrary chunks. A tag split across two chunks is
// held back until the next chunk decides it. Whitespace directly after a tag
// and at the end of a think block is dropped, so reasoning comes out trimmed.
// A splitter is not safe for concurrent use.
type ThinkTagSplitter struct {
	inThink  bool
	pending  string
	trimNext bool
}

// Feed consumes the next chunk and returns the content and reasoning text
// that can be emitted so far.
func (s *ThinkTagSplitter) Feed(chunk string) (content, reasoning string) {
	var contentOut, reasoningOut strings.Builder
	buf := s.pending + chunk
	s.pending = ""

	for buf != "" {
		if s.trimNext {
			buf = strings.TrimLeft(buf, thinkSpace)
			if buf == "" {
				break
			}
			s.trimNext = false
		}

		tag := thinkOpenTag
		out := &contentOut
		if s.inThink {
			tag = thinkCloseTag
			out = &reasoningOut
		}

		if idx := strings.Index(buf, tag); idx >= 0 {
			text := buf[:idx]
			if s.inThink {
				text = strings.TrimRight(text, thinkSpace)
			}
			out.WriteString(text)
			buf = buf[idx+len(tag):]
			s.inThink = !s.inThink
			s.trimNext = true
			continue
		}

		keep := partialTagSuffix(buf, tag)
		text := buf[:len(buf)-keep]
		if s.inThink {
			// trailing whitespace waits to see whether the block ends
			keep += len(text) - len(strings.TrimRight(text, thinkSpace))
			text = buf[:len(buf)-keep]
		}
		out.WriteString(text)
		s.pending = buf[len(buf)-keep:]
		break
	}

	return contentOut.String(), reasoningOut.String()
}

// Flush returns any text held back at the end of the input.
func (s *ThinkTagSplitter) Flush() (content, reasoning string) {
	rest := s.pending
	s.pending = ""
	if s.inThink {
		return "", strings.TrimRight(rest, thinkSpace)
	}
	return rest, ""
}

// InThink reports whether the splitter is inside an unclosed think block.
func (s *ThinkTagSplitter) InThink() bool {
	return s.inThink
}

// partialTagSuffix returns the length of the longest suffix of s that is a
// proper prefix of tag.
func partialTagSuffix(s, tag string) int {
	maxLen := min(len(s), len(tag)-1)
	for n := maxLen; n > 0; n-- {
		if strings.HasSuffix(s, tag[:n]) {
			return n
		}
	}
	return 0
}

// SplitThinkTags separates a complete text into answer content and inline
// reasoning. It gives the same result as feeding text to a ThinkTagSplitter
// in any number of chunks.
func SplitThinkTags(text string) (content, reasoning string) {
	var splitter ThinkTagSplitter
	content, reasoning = splitter.Feed(text)
	restContent, restReasoning := splitter.Flush()
	return content + restContent, reasoning + restReasoning
}
