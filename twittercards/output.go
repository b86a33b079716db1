package twittercards

import "regexp"

// Only the attribute key is matched; a content value that happens to mention
// "twitter:" leaves the tag alone.
var reTwitterProperty = regexp.MustCompile(`property="([^"]*twitter:[^"]*)"`)

// RewriteOutputKey is an opengraph.OutputFilter. Twitter reads its tags from
// the name attribute, so serialized twitter: tags get name="..." instead of
// the Open Graph property="...". Other tags pass through unchanged.
func RewriteOutputKey(tag string) string {
	return reTwitterProperty.ReplaceAllString(tag, `name="$1"`)
}
