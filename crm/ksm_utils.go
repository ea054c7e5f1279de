package crm

import (
	"errors"

	ksm "github.com/keeper-security/secrets-manager-go/core"
)

type CrmEndpointParameters struct {
	Url       string
	Token     string
	RateLimit float64
	Verbose   bool
}

type GoogleSourceParameters struct {
	Subject     string
	Credentials []byte
	Domain      string
}

// LoadSyncParametersFromRecord reads the sync configuration from a Keeper
// record: the CRM base URL and token from the url/password fields, the
// Google Workspace admin subject from the login field, and the service
// account credentials from an attached credentials.json file. Optional
// custom fields: "Google Domain", "Rate Limit", "Verbose".
func LoadSyncParametersFromRecord(record *ksm.Record) (ca *CrmEndpointParameters, gcp *GoogleSourceParameters, err error) {
	var files = record.FindFiles("credentials.json")
	if len(files) == 0 {
		err = errors.New("\"credentials.json\" file attachment is missing from the sync record")
		return
	}
	var credentials = files[0].GetFileData()
	var subject = record.GetFieldValueByType("login")

	gcp = &GoogleSourceParameters{
		Subject:     subject,
		Credentials: credentials,
	}
	var fields = record.GetCustomFieldsByLabel("Google Domain")
	if len(fields) > 0 {
		if sv, ok := toString(fields[0]["value"]); ok {
			gcp.Domain = sv
		} else if av, ok := fields[0]["value"].([]any); ok && len(av) > 0 {
			gcp.Domain, _ = toString(av[0])
		}
	}

	ca = &CrmEndpointParameters{
		Url:   record.GetFieldValueByType("url"),
		Token: record.Password(),
	}
	if len(ca.Url) == 0 || len(ca.Token) == 0 {
		err = errors.New("sync record must carry the CRM base URL and an API token")
		return
	}

	fields = record.GetCustomFieldsByLabel("Rate Limit")
	if len(fields) > 0 {
		if fv, ok := toFloat64(fields[0]["value"]); ok {
			ca.RateLimit = fv
		}
	}
	fields = record.GetCustomFieldsByLabel("Verbose")
	if len(fields) > 0 {
		if bv, ok := toBoolean(fields[0]["value"]); ok {
			ca.Verbose = bv
		}
	}
	return
}
