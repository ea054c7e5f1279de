package crm

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"
)

type googleEndpoint struct {
	users          []*User
	jwtCredentials []byte
	subject        string
	domain         string
}

// NewGoogleEndpoint creates an IUserSource reading active accounts from the
// Google Workspace directory.
// credentials: GCP service account JWT credentials
// subject: Google Workspace admin account
// domain: optional Workspace domain to restrict the listing; the whole
// customer account is listed when empty
func NewGoogleEndpoint(credentials []byte, subject string, domain string) IUserSource {
	return &googleEndpoint{
		jwtCredentials: credentials,
		subject:        subject,
		domain:         domain,
	}
}

func (ge *googleEndpoint) Users(cb func(*User)) {
	for _, u := range ge.users {
		cb(u)
	}
}

func (ge *googleEndpoint) Populate() (err error) {
	params := google.CredentialsParams{
		Scopes:  []string{admin.AdminDirectoryUserReadonlyScope},
		Subject: ge.subject,
	}
	var ctx = context.Background()
	cred, _ := google.CredentialsFromJSONWithParams(ctx, ge.jwtCredentials, params)
	var directory *admin.Service
	if directory, err = admin.NewService(ctx, option.WithCredentials(cred)); err != nil {
		return
	}

	var ul = directory.Users.List()
	if len(ge.domain) > 0 {
		ul = ul.Domain(ge.domain)
	} else {
		ul = ul.Customer("my_customer")
	}

	ge.users = nil
	var pageToken string
	for {
		var users *admin.Users
		if users, err = ul.PageToken(pageToken).Do(); err != nil {
			return
		}
		for _, u := range users.Users {
			if u.Suspended || len(u.PrimaryEmail) == 0 {
				continue
			}
			var gu = &User{
				Email:       u.PrimaryEmail,
				LastSession: u.LastLoginTime,
			}
			if u.Name != nil {
				if len(u.Name.FullName) > 0 {
					gu.Name = u.Name.FullName
				} else {
					gu.Name = strings.TrimSpace(strings.Join([]string{u.Name.GivenName, u.Name.FamilyName}, " "))
				}
			}
			// accounts that never signed in have no last-session value
			if len(gu.LastSession) == 0 {
				continue
			}
			ge.users = append(ge.users, gu)
		}
		pageToken = users.NextPageToken
		if len(pageToken) == 0 {
			break
		}
	}

	if len(ge.users) == 0 {
		err = errors.New("no Google Workspace users could be resolved")
		return
	}
	return
}
