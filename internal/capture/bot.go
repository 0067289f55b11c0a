package capture

import (
	"strings"

	"github.com/mssola/useragent"
)

// botMarkers are lowercase substrings that identify crawlers, link
// unfurlers, scanners and HTTP libraries.
var botMarkers = []string{
	"bot", "spider", "crawl", "preview",

	"facebookexternalhit", "facebot", "whatsapp", "slackbot", "telegrambot",
	"applebot", "twitterbot", "linkedinbot", "discordbot", "skypeuripreview",
	"bingpreview/",

	"google web preview", "google favicon", "google-ad", "google-site-verification",
	"googlesecurityscanner", "chrome-lighthouse",

	"burpcollaborator.net/", "zgrab/", "netcraftsurveyagent/", "wappalyzer", "whatweb/",

	"go-http-client/", "curl/", "wget/", "python-requests/", "python-urllib/",
	"httpx", "aiohttp/", "java/", "libwww-perl/", "okhttp/", "ruby",

	"headlesschrome/", "phantomjs", "slimerjs", "wkhtmltoimage", "wkhtmltopdf",
}

// isBot combines the parser's own verdict with the marker list. An empty
// user agent is treated as a bot since browsers always send one.
func isBot(ua *useragent.UserAgent, raw string) bool {
	if strings.TrimSpace(raw) == "" || ua.Bot() {
		return true
	}
	lower := strings.ToLower(raw)
	for _, m := range botMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func deviceType(ua *useragent.UserAgent, bot bool) string {
	switch {
	case bot:
		return "bot"
	case ua.Mobile():
		return "mobile"
	default:
		return "desktop"
	}
}
