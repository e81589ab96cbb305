package auth

import (
	"fmt"
	"strings"

	"github.com/user/chathub-go/apperror"
)

// HandleSeparator joins a display name and its tag into a handle.
const HandleSeparator = "#"

// tagSpace is the number of possible 4-digit discriminator tags per name.
const tagSpace = 10000

// ParseHandle splits a "name#tag" handle into its parts. The separator must
// be present and both parts non-empty.
func ParseHandle(handle string) (username, tag string, err error) {
	name, tag, found := strings.Cut(handle, HandleSeparator)
	if !found || name == "" || tag == "" {
		return "", "", apperror.NewMalformedHandleError(
			fmt.Sprintf("malformed handle %q: expected name%stag", handle, HandleSeparator))
	}
	return name, tag, nil
}

// FormatTag renders a tag number as the canonical zero-padded 4-digit string.
func FormatTag(n int) string {
	return fmt.Sprintf("%04d", n)
}

// chooseTag picks a free tag for a display name by sampling the tag space and
// rejecting collisions with taken tags. intn supplies randomness so tests can
// pin it. Returns false when the space is exhausted or sampling gives up.
func chooseTag(taken map[int]struct{}, intn func(int) int) (int, bool) {
	if len(taken) >= tagSpace {
		return 0, false
	}
	for i := 0; i < tagSpace; i++ {
		t := intn(tagSpace)
		if _, used := taken[t]; !used {
			return t, true
		}
	}
	return 0, false
}
