package protocol

// NormalizeLineEndings rewrites every bare "\n" as "\r\n". Existing CRLF
// pairs are left alone.
func NormalizeLineEndings(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/16)
	for i, c := range src {
		if c == '\n' && (i == 0 || src[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, c)
	}
	return out
}
