package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	followUpMarker = "Follow-up Questions:"
	answerLabel    = "Answer:"
)

// followUpNumberRe finds list numbers such as "1." or "12." at the start of
// the text or after whitespace.
var followUpNumberRe = regexp.MustCompile(`(?:^|\s)\d+\.\s*`)

// TutorReply is a chat answer split into the text to show and the follow-up
// questions the user can pick.
type TutorReply struct {
	Answer    string
	FollowUps []string
}

// ParseTutorReply splits a tutor response on the "Follow-up Questions:"
// marker. The part before it, without a leading "Answer:" label, is the
// answer; the part after it is read as a numbered list. Without the marker
// the whole response is the answer and there are no follow-ups.
func ParseTutorReply(response string) TutorReply {
	head, tail, found := strings.Cut(response, followUpMarker)
	if !found {
		return TutorReply{Answer: strings.TrimSpace(response)}
	}
	answer := strings.TrimSpace(head)
	answer = strings.TrimSpace(strings.TrimPrefix(answer, answerLabel))
	return TutorReply{Answer: answer, FollowUps: parseNumberedList(tail)}
}

// parseNumberedList reads "1. first 2. second" (on one line or several) into
// its items. A number followed directly by a digit, as in "3.5", does not
// start an item.
func parseNumberedList(text string) []string {
	var starts [][2]int
	for _, loc := range followUpNumberRe.FindAllStringIndex(text, -1) {
		if r, _ := utf8.DecodeRuneInString(text[loc[1]:]); unicode.IsDigit(r) {
			continue
		}
		starts = append(starts, [2]int{loc[0], loc[1]})
	}

	var items []string
	for i, s := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if item := strings.TrimSpace(text[s[1]:end]); item != "" {
			items = append(items, item)
		}
	}
	return items
}
