package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// assColor converts a "#RRGGBB" or "#AARRGGBB" hex color into the ASS
// "&HAABBGGRR" encoding. In ASS the alpha byte is transparency (00 is
// opaque) and the channel order is reversed. Invalid input falls back
// to def, which must already be ASS-encoded.
func assColor(hex, def string) string {
	hex = strings.TrimSpace(strings.TrimPrefix(hex, "#"))
	var a, r, g, b uint8
	switch len(hex) {
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return def
		}
		a = 0x00
		r, g, b = uint8(v>>16), uint8(v>>8), uint8(v)
	case 8:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return def
		}
		a, r, g, b = uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)
	default:
		return def
	}
	return fmt.Sprintf("&H%02X%02X%02X%02X", a, b, g, r)
}
