package model

// Platform identifies one of the supported social networks.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformReddit    Platform = "reddit"
)

// AllPlatforms returns the closed set of supported platforms.
func AllPlatforms() []Platform {
	return []Platform{PlatformTwitter, PlatformLinkedIn, PlatformFacebook, PlatformInstagram, PlatformReddit}
}

// IsValidPlatform checks if a platform value is supported.
func IsValidPlatform(p string) bool {
	for _, v := range AllPlatforms() {
		if string(v) == p {
			return true
		}
	}
	return false
}

// CharacterLimit returns the maximum post length for a platform.
// Unknown platforms fall back to the most restrictive limit (280).
func CharacterLimit(p Platform) int {
	switch p {
	case PlatformTwitter:
		return 280
	case PlatformLinkedIn:
		return 3000
	case PlatformFacebook:
		return 63206
	case PlatformInstagram:
		return 2200
	case PlatformReddit:
		return 40000
	default:
		return 280
	}
}
