package crm

import (
	"context"
	"errors"
	"log/slog"
)

type crmSync struct {
	source IUserSource
	client *Client
	logger *slog.Logger
}

// NewCrmSync creates an ICrmSync that pushes every record from source into
// the CRM people object at crmUrl.
func NewCrmSync(source IUserSource, crmUrl string, token string) ICrmSync {
	return NewCrmSyncWithClient(source, NewClient(crmUrl, token), nil)
}

// NewCrmSyncWithClient allows injecting a configured client and logger; a nil
// logger falls back to slog.Default.
func NewCrmSyncWithClient(source IUserSource, client *Client, logger *slog.Logger) ICrmSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &crmSync{
		source: source,
		client: client,
		logger: logger,
	}
}

func (s *crmSync) Source() IUserSource {
	return s.source
}

func (s *crmSync) logUpsertFailure(email string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		s.logger.Error("person upsert failed",
			"email", email, "status", apiErr.Status, "payload", apiErr.Payload)
		return
	}
	s.logger.Error("person upsert failed", "email", email, "error", err)
}

// SyncUser maps one user record and upserts it. A mapping failure (missing
// email, unparseable last_session) returns before any request is issued. An
// upsert failure is absorbed here: the error payload is logged and the call
// yields no result, so a caller iterating records keeps going.
func (s *crmSync) SyncUser(ctx context.Context, user *User) (err error) {
	var values PersonValues
	if values, err = BuildPersonValues(user); err != nil {
		return
	}
	var person map[string]any
	var er1 error
	if person, er1 = s.client.AssertPerson(ctx, values); er1 != nil {
		s.logUpsertFailure(user.Email, er1)
	} else {
		s.logger.Info("person upserted", "email", user.Email, "record", person)
	}
	return
}

// Sync populates the source and synchronizes its records sequentially, one
// upsert at a time. Failed records land in the statistics; they never stop
// the run.
func (s *crmSync) Sync(ctx context.Context) (stat *SyncStat, err error) {
	if err = s.source.Populate(); err != nil {
		return
	}
	stat = new(SyncStat)
	s.source.Users(func(user *User) {
		var values PersonValues
		var er1 error
		if values, er1 = BuildPersonValues(user); er1 != nil {
			s.logger.Error("person record rejected", "email", user.Email, "error", er1)
			stat.FailedUsers = append(stat.FailedUsers, user.Email)
			return
		}
		if _, er1 = s.client.AssertPerson(ctx, values); er1 != nil {
			s.logUpsertFailure(user.Email, er1)
			stat.FailedUsers = append(stat.FailedUsers, user.Email)
			return
		}
		s.logger.Info("person upserted", "email", user.Email)
		stat.SuccessUsers = append(stat.SuccessUsers, user.Email)
	})
	return
}
