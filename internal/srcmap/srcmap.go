// Package srcmap implements spec.md §4.1: strip comments from Latte source
// while retaining a monotonic mapping from stripped-text offsets back to
// the original file, so that every later diagnostic can still point at the
// byte the user actually wrote.
//
// Grounded on _examples/original_source/src/frontend/preprocessor/char_offset.rs,
// reimplemented idiomatically rather than translated: the Rust original
// tracks a running Vec<usize> of erasure counts, which we keep as a single
// monotonic increasing slice indexed by stripped offset.
package srcmap

// Map translates a byte offset into the stripped text back to the
// corresponding offset in the original source.
type Map struct {
	// deltas[i] is the number of bytes erased from the original text at or
	// before stripped offset i. Original offset = i + deltas[i].
	deltas []int
}

// Translate returns the original-source byte offset for a stripped-text
// offset. Monotonic and invertible on retained bytes (§8 property 1).
func (m *Map) Translate(stripped int) int {
	if stripped < 0 {
		stripped = 0
	}
	if stripped >= len(m.deltas) {
		if len(m.deltas) == 0 {
			return stripped
		}
		return stripped + m.deltas[len(m.deltas)-1]
	}
	return stripped + m.deltas[stripped]
}

type stripState struct {
	inString  bool
	inEscape  bool
	lineCmt   bool
	blockCmt  bool
}

// Strip removes `//`, `#`, and `/* */` comments from src, returning the
// stripped text and a Map back to original offsets. Strings are respected:
// a `"` toggles string state unless escaped, and `//`/`#`/`/*` inside a
// string are ordinary characters. This stage never fails; malformed
// strings surface later as parser errors at translated offsets.
func Strip(src string) (string, *Map) {
	out := make([]byte, 0, len(src))
	deltas := make([]int, 0, len(src))
	erased := 0

	var st stripState
	i := 0
	n := len(src)
	for i < n {
		c := src[i]

		if st.lineCmt {
			if c == '\n' {
				st.lineCmt = false
				out = append(out, c)
				deltas = append(deltas, erased)
				i++
				continue
			}
			erased++
			i++
			continue
		}

		if st.blockCmt {
			if c == '*' && i+1 < n && src[i+1] == '/' {
				st.blockCmt = false
				erased += 2
				i += 2
				continue
			}
			erased++
			i++
			continue
		}

		if st.inString {
			out = append(out, c)
			deltas = append(deltas, erased)
			if st.inEscape {
				st.inEscape = false
			} else if c == '\\' {
				st.inEscape = true
			} else if c == '"' {
				st.inString = false
			}
			i++
			continue
		}

		// Not inside a string or comment.
		if c == '"' {
			st.inString = true
			out = append(out, c)
			deltas = append(deltas, erased)
			i++
			continue
		}
		if c == '/' && i+1 < n && src[i+1] == '/' {
			st.lineCmt = true
			erased += 2
			i += 2
			continue
		}
		if c == '#' {
			st.lineCmt = true
			erased++
			i++
			continue
		}
		if c == '/' && i+1 < n && src[i+1] == '*' {
			st.blockCmt = true
			erased += 2
			i += 2
			continue
		}
		out = append(out, c)
		deltas = append(deltas, erased)
		i++
	}

	return string(out), &Map{deltas: deltas}
}

// Position is a resolved (line, column) pair, 1-indexed, matching the
// convention of errors.Position.
type Position struct {
	Line int
	Col  int
}

// Resolve converts a byte offset into the original source text to a
// 1-indexed (line, column) pair. This is the "secondary mapper to
// (file, line, column) strings" mentioned in spec.md §7.
func Resolve(original string, offset int) Position {
	if offset > len(original) {
		offset = len(original)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if original[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Col: col}
}
