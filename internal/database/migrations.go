package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		org_id VARCHAR(255),
		role VARCHAR(50) NOT NULL DEFAULT 'guest',
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		key_hash VARCHAR(255) NOT NULL UNIQUE,
		key_prefix VARCHAR(20) NOT NULL,
		tenant_id VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		requests_per_minute INTEGER,
		requests_per_day INTEGER,
		requests_per_month INTEGER,
		permissions TEXT[] NOT NULL DEFAULT '{}',
		allowed_standards JSONB,
		total_requests BIGINT NOT NULL DEFAULT 0,
		expires_at TIMESTAMP WITH TIME ZONE,
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		last_used_at TIMESTAMP WITH TIME ZONE,
		revoked_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_api_keys_key_hash ON api_keys(key_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_tenant_id ON api_keys(tenant_id)`,

	// One live window per key per granularity; commit upserts against this PK.
	`CREATE TABLE IF NOT EXISTS quota_windows (
		key_id UUID NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
		granularity VARCHAR(10) NOT NULL,
		window_start TIMESTAMP WITH TIME ZONE NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (key_id, granularity)
	)`,

	`CREATE TABLE IF NOT EXISTS standards (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tenant_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		source VARCHAR(20) NOT NULL DEFAULT 'custom',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_standards_tenant_id ON standards(tenant_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
