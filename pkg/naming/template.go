package naming

import (
	"os"
	"regexp"
	"strconv"
)

// DefaultTemplate names exported files after their caption.
const DefaultTemplate = "${caption}"

var imageSuffix = regexp.MustCompile(`(?i)\.(jpeg|jpg|png|tif|tiff)$`)

// StripImageSuffix removes a trailing image extension from a caption so that
// "IMG_0001.JPG" does not end up exported as "IMG_0001 JPG.jpg".
func StripImageSuffix(caption string) string {
	return imageSuffix.ReplaceAllString(caption, "")
}

// Expand substitutes ${index} (1-based) and ${caption} in template. Unknown
// placeholders are left as they are.
func Expand(template string, index int, caption string) string {
	return os.Expand(template, func(key string) string {
		switch key {
		case "index":
			return strconv.Itoa(index)
		case "caption":
			return caption
		default:
			return "${" + key + "}"
		}
	})
}

// FileBase derives the sanitized base name of the index'th item of an album.
func FileBase(template string, index int, caption string) string {
	return SanitizeFilename(Expand(template, index, StripImageSuffix(caption)))
}
