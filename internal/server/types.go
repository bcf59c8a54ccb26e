package server

// OnrampSessionRequest is the body of POST /onramp-session.
type OnrampSessionRequest struct {
	Address     string   `json:"address"`
	Assets      []string `json:"assets,omitempty"`
	Blockchains []string `json:"blockchains,omitempty"`
	// ClientIP is preferred over forwarding headers when it is public.
	ClientIP string `json:"clientIp,omitempty"`
}

type OnrampSessionResponse struct {
	Token string `json:"token"`
}
