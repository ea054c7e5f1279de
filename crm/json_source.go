package crm

import (
	"encoding/json"
	"fmt"
	"os"
)

type jsonFileSource struct {
	path  string
	users []*User
}

// NewJsonFileSource creates an IUserSource reading an ordered JSON array of
// {email, name, last_session} objects from a local file. Record order is
// preserved; records without an email address are dropped at load time.
func NewJsonFileSource(path string) IUserSource {
	return &jsonFileSource{path: path}
}

func (js *jsonFileSource) Users(cb func(*User)) {
	for _, u := range js.users {
		cb(u)
	}
}

func (js *jsonFileSource) Populate() (err error) {
	var data []byte
	if data, err = os.ReadFile(js.path); err != nil {
		return
	}
	var users []*User
	if err = json.Unmarshal(data, &users); err != nil {
		err = fmt.Errorf("user list \"%s\": %w", js.path, err)
		return
	}
	js.users = js.users[:0]
	for _, u := range users {
		if u == nil || len(u.Email) == 0 {
			continue
		}
		js.users = append(js.users, u)
	}
	return
}
