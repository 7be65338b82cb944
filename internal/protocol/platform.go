package protocol

// Platform rooms. One push room and one feed collection per platform.
const (
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
)

// CommentLimit caps comment text length after trimming, on every platform.
const CommentLimit = 500

var platforms = map[string]struct{}{
	PlatformInstagram: {},
	PlatformTwitter:   {},
	PlatformFacebook:  {},
}

func IsKnownPlatform(p string) bool {
	_, ok := platforms[p]
	return ok
}

// BodyLimit returns the post body cap for a platform. Twitter keeps the
// short-form 280 limit; the other feeds allow 2200.
func BodyLimit(platform string) int {
	if platform == PlatformTwitter {
		return 280
	}
	return 2200
}
