package middleware

import (
	"encoding/base64"
	"net/http"
)

// BeaconPath is the image beacon endpoint. Every answer on it is a pixel.
const BeaconPath = "/api/speed/set"

// pixel is a transparent 1x1 GIF.
var pixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// WritePixel answers with the beacon GIF and status 200.
func WritePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(pixel)
}

func isBeacon(r *http.Request) bool {
	return r.URL.Path == BeaconPath
}
