package protocol

import (
	"fmt"

	"github.com/nczempin/httpd-go-uring/errors"
)

// PercentDecode decodes form-encoded bytes: '+' becomes a space and %XY
// becomes the byte 0xXY. Decoding stops at the first NUL byte.
func PercentDecode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case 0:
			return out, nil
		case '+':
			out = append(out, ' ')
		case '%':
			if i+2 >= len(src) {
				return nil, errors.NewProtocolError(
					errors.ProtocolErrorMalformedEncoding,
					fmt.Sprintf("truncated escape at offset %d", i),
				)
			}
			hi, okHi := unhex(src[i+1])
			lo, okLo := unhex(src[i+2])
			if !okHi || !okLo {
				return nil, errors.NewProtocolError(
					errors.ProtocolErrorMalformedEncoding,
					fmt.Sprintf("invalid escape %q at offset %d", src[i:i+3], i),
				)
			}
			out = append(out, hi<<4|lo)
			i += 2
		default:
			out = append(out, c)
		}
	}

	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
