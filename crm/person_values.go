package crm

import (
	"fmt"
	"strings"
	"time"
)

// PersonValues is the attribute payload of a person record upsert, keyed by
// the CRM attribute slugs.
type PersonValues map[string]any

// lastSessionLayouts are the accepted input forms of the last-session
// timestamp, tried in order. The first is the human-readable form the data
// exports use ("April 19, 2024, 1:19 PM").
var lastSessionLayouts = []string{
	"January 2, 2006, 3:04 PM",
	time.RFC3339,
}

// ParseLastSession parses a raw last-session string. Values without a zone
// are taken as UTC.
func ParseLastSession(value string) (result time.Time, err error) {
	for _, layout := range lastSessionLayouts {
		if result, err = time.Parse(layout, value); err == nil {
			return
		}
	}
	err = fmt.Errorf("unparseable last_session value %q", value)
	return
}

// BuildPersonValues maps one user record onto the person attribute schema:
//   - the email address is passed through unmodified as the single element of
//     email_addresses;
//   - the display name is split on spaces: first_name is the first token,
//     last_name the second (omitted when there is no second token), and
//     full_name holds the original unsplit string. Multi-part surnames lose
//     their trailing tokens; full_name preserves them.
//   - last_session is re-serialized as an RFC 3339 UTC timestamp.
//
// A missing email or an unparseable last_session fails the record before any
// request is built.
func BuildPersonValues(user *User) (values PersonValues, err error) {
	if len(user.Email) == 0 {
		err = fmt.Errorf("user record has no email address")
		return
	}
	var lastSession time.Time
	if lastSession, err = ParseLastSession(user.LastSession); err != nil {
		return
	}

	var name = map[string]any{
		"full_name": user.Name,
	}
	var tokens = strings.Split(user.Name, " ")
	name["first_name"] = tokens[0]
	if len(tokens) > 1 {
		name["last_name"] = tokens[1]
	}

	values = PersonValues{
		"email_addresses": []map[string]any{
			{"email_address": user.Email},
		},
		"name":         []map[string]any{name},
		"last_session": lastSession.UTC().Format(time.RFC3339),
	}
	return
}
