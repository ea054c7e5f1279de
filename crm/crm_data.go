package crm

import (
	"context"
	"fmt"
	"io"
)

// User is one input record to synchronize. Email is the natural matching key,
// Name is the unsplit display name, and LastSession is the raw last-session
// timestamp string as supplied by the source.
type User struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	LastSession string `json:"last_session"`
}

type Company struct {
	Id     string
	Name   string
	Domain string
}

type SyncStat struct {
	SuccessUsers []string
	FailedUsers  []string
}

// IUserSource supplies the ordered sequence of user records to synchronize.
type IUserSource interface {
	Users(func(*User))
	Populate() error
}

type ICrmSync interface {
	Source() IUserSource
	SyncUser(ctx context.Context, user *User) error
	Sync(ctx context.Context) (*SyncStat, error)
}

func PrintSyncStat(w io.Writer, stat *SyncStat) {
	if stat == nil {
		return
	}
	if len(stat.SuccessUsers) > 0 {
		_, _ = fmt.Fprintf(w, "Person Success:\n")
		for _, txt := range stat.SuccessUsers {
			_, _ = fmt.Fprintf(w, "\t%s\n", txt)
		}
	}
	if len(stat.FailedUsers) > 0 {
		_, _ = fmt.Fprintf(w, "Person Failure:\n")
		for _, txt := range stat.FailedUsers {
			_, _ = fmt.Fprintf(w, "\t%s\n", txt)
		}
	}
}
