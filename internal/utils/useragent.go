package utils

import (
	"strings"

	"github.com/estatehub/marketplace-backend/internal/models"
	ua "github.com/mssola/user_agent"
)

// ParseUserAgent extracts the device fields recorded with admin activity
func ParseUserAgent(userAgent string) models.DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return models.DeviceInfo{Browser: "Unknown", OS: "Unknown", Platform: "unknown"}
	}

	parser := ua.New(userAgent)
	browser, version := parser.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	return models.DeviceInfo{
		Browser:        browser,
		BrowserVersion: version,
		OS:             osName(parser),
		Platform:       platform(parser),
		IsMobile:       parser.Mobile(),
		IsBot:          parser.Bot(),
	}
}

func osName(parser *ua.UserAgent) string {
	info := parser.OSInfo()
	if info.Name == "" {
		return "Unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

// ordered so "iphone os" wins over a bare "os" match and "mac os x" over "linux"
var platforms = []struct{ needle, platform string }{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"windows", "windows"},
	{"mac os x", "mac"},
	{"macos", "mac"},
	{"chrome os", "chromeos"},
	{"ubuntu", "linux"},
	{"linux", "linux"},
}

func platform(parser *ua.UserAgent) string {
	name := strings.ToLower(parser.OSInfo().Name)
	for _, p := range platforms {
		if strings.Contains(name, p.needle) {
			return p.platform
		}
	}
	return "unknown"
}
