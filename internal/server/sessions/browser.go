package sessions

import (
	"strings"

	"github.com/dmitrijs2005/registrar/internal/server/models"
)

// edgeMarkers identify Edge builds, which also advertise Chrome/.
var edgeMarkers = []string{"Edg/", "Edge/", "EdgA/", "EdgiOS/"}

// ClassifyBrowser maps a User-Agent onto the browser enumeration. The checks
// run in a fixed order and the first hit wins.
func ClassifyBrowser(ua string) models.Browser {
	has := func(s string) bool { return strings.Contains(ua, s) }

	switch {
	case has("Seamonkey/"), has("SeaMonkey/"):
		return models.BrowserSeamonkey
	case has("Firefox/"):
		return models.BrowserFirefox
	case has("Chromium/"):
		return models.BrowserChromium
	case has("Chrome/") && !isEdge(ua):
		return models.BrowserChrome
	case has("Safari/"):
		return models.BrowserSafari
	case has("OPR"), has("Opera"):
		return models.BrowserOpera
	default:
		return models.BrowserOther
	}
}

func isEdge(ua string) bool {
	for _, m := range edgeMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}
