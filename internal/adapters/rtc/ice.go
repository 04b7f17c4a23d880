// Package rtc holds the WebRTC settings handed to browsers. Media flows
// peer to peer; the server only relays signaling.
package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

// ICEConfig builds the configuration clients use for their peer
// connections. Entries are comma separated URL lists, one per server;
// blank entries are skipped.
func ICEConfig(servers []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	for _, s := range servers {
		var urls []string
		for _, u := range strings.Split(s, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			cfg.ICEServers = append(cfg.ICEServers, webrtc.ICEServer{URLs: urls})
		}
	}
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: []string{DefaultSTUN}}}
	}
	return cfg
}
