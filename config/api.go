package config

// GetAuthSkipperPaths returns a list of paths to skip authentication for
func GetAuthSkipperPaths() []string {
	// OAuth callbacks are hit by the marketplace redirect, not by an operator session
	return []string{"/api/channels/oauth/shopee/callback", "/api/channels/oauth/tiktok/callback"}
}
