package utils

// Context values substituted into sink path templates are attacker
// influenced (they arrive with the event), so every substituted value
// is escaped before it becomes a path component. We only pass through
// ascii printables, numerics and a few safe symbols; everything else
// is hex encoded. Escaping a leading "." also stops directory
// traversal through "..".

var hexTable = []byte("0123456789ABCDEF")

func shouldEscape(c byte) bool {
	if 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' {
		return false
	}

	switch c {
	case '-', '_', '.', '~', ' ', '$':
		return false
	}

	return true
}

func SanitizeComponent(component string) string {
	length := len(component)
	if length == 0 {
		return ""
	}

	// Escape components that start with . - these are illegal on
	// windows and can be used for directory traversal. The . byte
	// may appear anywhere else though.
	if component[0] == '.' {
		return "%2E" + SanitizeComponent(component[1:])
	}

	// Windows can not have a trailing "." instead swallowing it
	// completely.
	if component[length-1] == '.' {
		return SanitizeComponent(component[:length-1]) + "%2E"
	}

	// Values land in file names, so cap the component length. No
	// round trip requirement here - truncation is acceptable.
	if length > 1024 {
		length = 1024
		component = component[:1024]
	}

	result := make([]byte, length*4)
	result_idx := 0

	for _, c := range []byte(component) {
		if !shouldEscape(c) {
			result[result_idx] = c
			result_idx += 1
		} else {
			result[result_idx] = '%'
			result[result_idx+1] = hexTable[c>>4]
			result[result_idx+2] = hexTable[c&15]
			result_idx += 3
		}

		if result_idx > len(result)-1 {
			break
		}
	}

	return string(result[:result_idx])
}
