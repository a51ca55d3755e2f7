package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ResourcesSchema = `
	CREATE TABLE IF NOT EXISTS resources (
		id VARCHAR NOT NULL,
		org_id VARCHAR NOT NULL,
		name VARCHAR,
		type VARCHAR,
		tags JSON,
		metrics JSON,
		monthly_cost DOUBLE NULL,
		subscription_id VARCHAR,
		PRIMARY KEY (org_id, id)
	);
`

const RecommendationsSchema = `
	CREATE TABLE IF NOT EXISTS recommendations (
		id VARCHAR NOT NULL PRIMARY KEY,
		org_id VARCHAR NOT NULL,
		rule_id VARCHAR NOT NULL,
		resource_id VARCHAR NOT NULL,
		subscription_id VARCHAR,
		title VARCHAR,
		description VARCHAR,
		impact_monthly DOUBLE,
		confidence DOUBLE,
		status VARCHAR NOT NULL,
		details JSON,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (org_id, rule_id, resource_id)
	);
`

const RuleOverridesSchema = `
	CREATE TABLE IF NOT EXISTS rule_overrides (
		org_id VARCHAR NOT NULL,
		rule_id VARCHAR NOT NULL,
		enabled BOOLEAN NULL,
		thresholds JSON,
		PRIMARY KEY (org_id, rule_id)
	);
`

const PullRequestEventsSchema = `
	CREATE TABLE IF NOT EXISTS pr_events (
		id VARCHAR NOT NULL PRIMARY KEY,
		org_id VARCHAR NOT NULL,
		recommendation_id VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		repo VARCHAR NOT NULL,
		number INTEGER NOT NULL,
		branch VARCHAR,
		status VARCHAR NOT NULL,
		url VARCHAR,
		created_at TIMESTAMP NOT NULL
	);
`

const ConnectionsSchema = `
	CREATE TABLE IF NOT EXISTS connections (
		id VARCHAR NOT NULL PRIMARY KEY,
		org_id VARCHAR NOT NULL,
		subscription_id VARCHAR NOT NULL,
		tenant_id VARCHAR,
		client_id VARCHAR,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	);
`

var bootQueries = []string{
	ResourcesSchema,
	RecommendationsSchema,
	RuleOverridesSchema,
	PullRequestEventsSchema,
	ConnectionsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
