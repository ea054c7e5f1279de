package crm_people_sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	ksm "github.com/keeper-security/secrets-manager-go/core"

	"github.com/syncworks/crm-people-sync/crm"
)

func init() {
	// Register an HTTP function with the Functions Framework
	functions.HTTP("CrmPeopleSyncHttp", crmPeopleSyncHttp)
	functions.CloudEvent("CrmPeopleSyncPubSub", crmPeopleSyncPubSub)
}

const ksmConfigName = "KSM_CONFIG_BASE64"
const ksmRecordUid = "KSM_RECORD_UID"

func runCrmSync(ctx context.Context) (syncStat *crm.SyncStat, err error) {
	var configBase64 = os.Getenv(ksmConfigName)
	if len(configBase64) == 0 {
		err = fmt.Errorf("environment variable \"%s\" is not set", ksmConfigName)
		log.Println(err)
		return
	}

	var config = ksm.NewMemoryKeyValueStorage(configBase64)
	var sm = ksm.NewSecretsManager(&ksm.ClientOptions{
		Config: config,
	})

	var filter []string
	var recordUid = os.Getenv(ksmRecordUid)
	if len(recordUid) > 0 {
		filter = append(filter, recordUid)
	}

	var records []*ksm.Record
	if records, err = sm.GetSecrets(filter); err != nil {
		log.Println(err)
		return
	}

	var syncRecord *ksm.Record
	for _, r := range records {
		if r.Type() != "login" {
			continue
		}
		var webUrl = r.GetFieldValueByType("url")
		if len(webUrl) == 0 {
			continue
		}
		var uri *url.URL
		var er1 error
		if uri, er1 = url.Parse(webUrl); er1 != nil {
			continue
		}
		if !strings.Contains(uri.Path, "/v2") {
			continue
		}

		var files = r.FindFiles("credentials.json")
		if len(files) == 0 {
			continue
		}
		syncRecord = r
		break
	}
	if syncRecord == nil {
		err = errors.New("CRM sync record was not found. Make sure the record is valid and shared to KSM application")
		log.Println(err)
		return
	}

	var ca *crm.CrmEndpointParameters
	var gcp *crm.GoogleSourceParameters
	if ca, gcp, err = crm.LoadSyncParametersFromRecord(syncRecord); err != nil {
		log.Println(err)
		return
	}

	var source = crm.NewGoogleEndpoint(gcp.Credentials, gcp.Subject, gcp.Domain)
	var client = crm.NewClient(ca.Url, ca.Token)
	if ca.RateLimit > 0 {
		client.SetRateLimit(ca.RateLimit)
	}

	var level = slog.LevelWarn
	if ca.Verbose {
		level = slog.LevelInfo
	}
	var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var sync = crm.NewCrmSyncWithClient(source, client, logger)
	if syncStat, err = sync.Sync(ctx); err == nil {
		crm.PrintSyncStat(os.Stdout, syncStat)
	}

	return
}

// Function crmPeopleSyncHttp is an HTTP handler
func crmPeopleSyncHttp(w http.ResponseWriter, r *http.Request) {
	var syncStat, err = runCrmSync(r.Context())
	if err == nil {
		crm.PrintSyncStat(w, syncStat)
	} else {
		log.Fatal(err)
	}
}

// crmPeopleSyncPubSub consumes a CloudEvent message and extracts the Pub/Sub message.
func crmPeopleSyncPubSub(ctx context.Context, _ event.Event) (err error) {
	_, err = runCrmSync(ctx)
	return
}
