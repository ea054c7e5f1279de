package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/syncworks/crm-people-sync/crm"
)

const tokenEnvName = "CRM_API_TOKEN"
const urlEnvName = "CRM_API_URL"
const rateLimitEnvName = "CRM_RATE_LIMIT"

const defaultCompanyListingPath = "companies.txt"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crm-sync <command> [arguments]

Commands:
  sync <users.json>                 upsert people from a JSON user list
  companies [listing path]          write the company listing to a local file
  company-create <name> <domain>    create one company record
  company-delete <record id>        delete one company record

Environment:
  %s   CRM API bearer token (required)
  %s     CRM API base URL (required)
  %s  max requests per second (optional)
`, tokenEnvName, urlEnvName, rateLimitEnvName)
	os.Exit(2)
}

func newClient() *crm.Client {
	var token = os.Getenv(tokenEnvName)
	if len(token) == 0 {
		log.Fatalf("environment variable \"%s\" is not set", tokenEnvName)
	}
	var baseUrl = os.Getenv(urlEnvName)
	if len(baseUrl) == 0 {
		log.Fatalf("environment variable \"%s\" is not set", urlEnvName)
	}
	var client = crm.NewClient(baseUrl, token)
	if rps := os.Getenv(rateLimitEnvName); len(rps) > 0 {
		if fv, err := strconv.ParseFloat(rps, 64); err == nil {
			client.SetRateLimit(fv)
		} else {
			log.Fatalf("environment variable \"%s\" is not a number: %v", rateLimitEnvName, err)
		}
	}
	return client
}

func main() {
	// a missing .env file is fine; the environment may be set directly
	_ = godotenv.Load()
	flag.Usage = usage
	flag.Parse()

	var args = flag.Args()
	if len(args) == 0 {
		usage()
	}
	var ctx = context.Background()

	switch args[0] {
	case "sync":
		if len(args) != 2 {
			usage()
		}
		var source = crm.NewJsonFileSource(args[1])
		var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		var sync = crm.NewCrmSyncWithClient(source, newClient(), logger)
		var stat, err = sync.Sync(ctx)
		if err != nil {
			log.Fatal(err)
		}
		crm.PrintSyncStat(os.Stdout, stat)
		if len(stat.FailedUsers) > 0 {
			os.Exit(1)
		}
	case "companies":
		var path = defaultCompanyListingPath
		if len(args) > 1 {
			path = args[1]
		}
		var count, err = crm.WriteCompanyListing(ctx, newClient(), path)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %d companies to %s\n", count, path)
	case "company-create":
		if len(args) != 3 {
			usage()
		}
		var company, err = newClient().CreateCompany(ctx, args[1], args[2])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created company: %v\n", company)
	case "company-delete":
		if len(args) != 2 {
			usage()
		}
		if err := newClient().DeleteCompany(ctx, args[1]); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Deleted company %s\n", args[1])
	default:
		usage()
	}
}
