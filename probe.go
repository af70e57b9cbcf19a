package mboot

// A Probe reports whether a window of bytes looks like the start of
// printable text rather than binary segment data. The segment locator
// leans on it for every boundary the image does not store a size for.
type Probe func(window []byte, min int) bool

// AlnumProbe is the stock heuristic: skip a single leading NUL, count the
// ASCII alphanumeric bytes left in the window, and read positive once the
// count clears min. It is deliberately coarse; the question is "could the
// cmdline start here", not whether the bytes match any real signature.
func AlnumProbe(window []byte, min int) bool {
	w := window
	if len(w) > 1 && w[0] == 0x00 {
		// padding runs often lead with a stray NUL
		w = w[1:]
	}

	count := 0
	for _, b := range w {
		if isAlnum(b) {
			count++
		}
	}
	return count > min
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
