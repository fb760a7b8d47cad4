package device

import (
	"casehub-auth-svc/src/internal/session"
	"strings"
)

const (
	Unknown      = "Unknown"
	ClassDesktop = "desktop"
	ClassMobile  = "mobile"
	ClassTablet  = "tablet"
)

// Parser classifies User-Agent strings by substring matching. It never
// fails; anything it cannot place comes back as Unknown or desktop.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(userAgent string) session.Device {
	ua := strings.ToLower(userAgent)

	return session.Device{
		Browser: parseBrowser(ua),
		OS:      parseOS(ua),
		Class:   parseClass(ua),
	}
}

func parseBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "chrome/"):
		return "Chrome"
	case strings.Contains(ua, "firefox/"):
		return "Firefox"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident/"):
		return "Internet Explorer"
	default:
		return Unknown
	}
}

func parseOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return Unknown
	}
}

func parseClass(ua string) string {
	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return ClassTablet
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return ClassMobile
	default:
		return ClassDesktop
	}
}
