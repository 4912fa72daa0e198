package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RunMigrations creates tables, change-feed triggers and moderation procedures.
// Every statement is idempotent so it is safe to run on each start.
func RunMigrations(ctx context.Context, db DB, logger *logrus.Logger) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"accounts", schemaAccounts},
		{"providers", schemaProviders},
		{"properties", schemaProperties},
		{"property children", schemaPropertyChildren},
		{"engagement", schemaEngagement},
		{"architectural plans", schemaPlans},
		{"activity logs", schemaActivityLogs},
		{"notifications", schemaNotifications},
		{"refresh tokens", schemaRefreshTokens},
		{"rate limits", schemaRateLimits},
		{"email confirmations", schemaEmailConfirmations},
		{"change feed triggers", schemaChangeFeed},
		{"moderation procedures: accounts", rpcAccounts},
		{"moderation procedures: providers", rpcProviders},
		{"moderation procedures: properties", rpcProperties},
		{"moderation procedures: plans", rpcPlans},
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("migration %q failed: %w", step.name, err)
		}
		logger.WithField("step", step.name).Debug("Migration applied")
	}

	logger.Infof("Applied %d migration steps", len(steps))
	return nil
}

const schemaAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL CHECK (role IN ('admin', 'provider', 'user')),
	status TEXT NOT NULL CHECK (status IN ('email_unconfirmed', 'pending', 'approved', 'rejected', 'suspended')),
	rejection_reason TEXT,
	rejected_at TIMESTAMPTZ,
	rejected_by UUID,
	approved_at TIMESTAMPTZ,
	approved_by UUID,
	suspension_reason TEXT,
	suspended_at TIMESTAMPTZ,
	deleted_at TIMESTAMPTZ,
	deletion_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login_at TIMESTAMPTZ,
	login_count INT NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email ON accounts (lower(email)) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_accounts_role_status ON accounts (role, status) WHERE deleted_at IS NULL;
`

const schemaProviders = `
CREATE TABLE IF NOT EXISTS providers (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL UNIQUE REFERENCES accounts(id),
	business_name TEXT NOT NULL,
	business_email TEXT NOT NULL,
	business_phone TEXT,
	city TEXT,
	subscription_status TEXT NOT NULL DEFAULT 'inactive'
		CHECK (subscription_status IN ('active', 'inactive', 'expired', 'cancelled')),
	subscription_plan TEXT,
	subscription_expires_at TIMESTAMPTZ,
	total_listings INT NOT NULL DEFAULT 0,
	total_views INT NOT NULL DEFAULT 0,
	total_inquiries INT NOT NULL DEFAULT 0,
	approved_at TIMESTAMPTZ,
	approved_by UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const schemaProperties = `
CREATE TABLE IF NOT EXISTS properties (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL CHECK (type IN ('residential', 'land', 'commercial')),
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK (status IN ('draft', 'pending', 'published', 'rejected', 'sold', 'rented')),
	price NUMERIC(14, 2) NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'LKR',
	provider_id UUID REFERENCES providers(id),
	view_count INT NOT NULL DEFAULT 0,
	inquiry_count INT NOT NULL DEFAULT 0,
	is_featured BOOLEAN NOT NULL DEFAULT FALSE,
	rejection_reason TEXT,
	rejected_at TIMESTAMPTZ,
	rejected_by UUID,
	approved_by UUID,
	published_at TIMESTAMPTZ,
	deleted_at TIMESTAMPTZ,
	deletion_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_properties_status ON properties (status) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_properties_provider ON properties (provider_id) WHERE deleted_at IS NULL;
`

const schemaPropertyChildren = `
CREATE TABLE IF NOT EXISTS property_locations (
	property_id UUID PRIMARY KEY REFERENCES properties(id),
	address TEXT NOT NULL,
	city TEXT NOT NULL,
	district TEXT,
	postal_code TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS property_features (
	property_id UUID PRIMARY KEY REFERENCES properties(id),
	bedrooms INT,
	bathrooms INT,
	area_sqft DOUBLE PRECISION,
	floors INT,
	parking_spaces INT,
	year_built INT,
	furnished BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS property_amenities (
	property_id UUID NOT NULL REFERENCES properties(id),
	amenity TEXT NOT NULL,
	PRIMARY KEY (property_id, amenity)
);
CREATE TABLE IF NOT EXISTS property_utilities (
	property_id UUID NOT NULL REFERENCES properties(id),
	utility TEXT NOT NULL,
	PRIMARY KEY (property_id, utility)
);
CREATE TABLE IF NOT EXISTS property_images (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	url TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS land_details (
	property_id UUID PRIMARY KEY REFERENCES properties(id),
	area DOUBLE PRECISION NOT NULL,
	area_unit TEXT NOT NULL,
	zoning TEXT NOT NULL,
	soil_type TEXT,
	road_access BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS commercial_details (
	property_id UUID PRIMARY KEY REFERENCES properties(id),
	floor_area DOUBLE PRECISION NOT NULL,
	rent_per_area DOUBLE PRECISION,
	zoning TEXT,
	business_type TEXT,
	parking_spaces INT
);
CREATE TABLE IF NOT EXISTS land_documents (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const schemaEngagement = `
CREATE TABLE IF NOT EXISTS property_views (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	viewer_id UUID,
	ip_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_property_views_created ON property_views (created_at);
CREATE TABLE IF NOT EXISTS property_inquiries (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	account_id UUID,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_property_inquiries_created ON property_inquiries (created_at);
`

const schemaPlans = `
CREATE TABLE IF NOT EXISTS architectural_plans (
	id UUID PRIMARY KEY,
	provider_id UUID REFERENCES providers(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK (status IN ('draft', 'pending', 'approved', 'published', 'rejected', 'archived')),
	bedrooms INT NOT NULL DEFAULT 0,
	bathrooms INT NOT NULL DEFAULT 0,
	area DOUBLE PRECISION NOT NULL DEFAULT 0,
	price NUMERIC(14, 2) NOT NULL DEFAULT 0,
	features TEXT[] NOT NULL DEFAULT '{}',
	view_count INT NOT NULL DEFAULT 0,
	download_count INT NOT NULL DEFAULT 0,
	purchase_count INT NOT NULL DEFAULT 0,
	approved_at TIMESTAMPTZ,
	approved_by UUID,
	rejected_at TIMESTAMPTZ,
	rejected_by UUID,
	rejection_reason TEXT,
	deleted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const schemaActivityLogs = `
CREATE TABLE IF NOT EXISTS admin_activity_logs (
	id UUID PRIMARY KEY,
	admin_id UUID NOT NULL,
	action TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id UUID NOT NULL,
	target_email TEXT,
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_activity_logs_created ON admin_activity_logs (created_at DESC);
`

const schemaNotifications = `
CREATE TABLE IF NOT EXISTS system_notifications (
	id UUID PRIMARY KEY,
	admin_id UUID,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	severity TEXT NOT NULL DEFAULT 'info' CHECK (severity IN ('info', 'warning', 'error', 'success')),
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	related_entity_type TEXT,
	related_entity_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	read_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS provider_notifications (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL REFERENCES accounts(id),
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	related_entity_type TEXT,
	related_entity_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	read_at TIMESTAMPTZ
);
`

const schemaRefreshTokens = `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL REFERENCES accounts(id),
	token_hash TEXT NOT NULL UNIQUE,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	revoked BOOLEAN NOT NULL DEFAULT FALSE,
	revoked_at TIMESTAMPTZ
);
`

const schemaRateLimits = `
CREATE TABLE IF NOT EXISTS rate_limit_events (
	id BIGSERIAL PRIMARY KEY,
	action TEXT NOT NULL,
	identifier TEXT NOT NULL,
	identifier_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_rate_limit_lookup ON rate_limit_events (action, identifier, identifier_type, created_at);
`

const schemaEmailConfirmations = `
CREATE TABLE IF NOT EXISTS email_confirmations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	account_id UUID NOT NULL REFERENCES accounts(id),
	code_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	verified_at TIMESTAMPTZ,
	attempts INT NOT NULL DEFAULT 0,
	max_attempts INT NOT NULL,
	ip_address TEXT,
	user_agent TEXT
);
CREATE INDEX IF NOT EXISTS idx_email_confirmations_account ON email_confirmations (account_id, verified, created_at DESC);
`

// Rows written directly (including by the procedures below) still reach listeners
const schemaChangeFeed = `
CREATE OR REPLACE FUNCTION notify_row_change() RETURNS trigger AS $$
DECLARE
	rec RECORD;
	recipient TEXT := NULL;
BEGIN
	IF TG_OP = 'DELETE' THEN rec := OLD; ELSE rec := NEW; END IF;
	IF TG_TABLE_NAME = 'system_notifications' THEN recipient := rec.admin_id::text; END IF;
	PERFORM pg_notify(TG_TABLE_NAME, json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'record_id', rec.id::text,
		'recipient_id', recipient
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS admin_activity_logs_notify ON admin_activity_logs;
CREATE TRIGGER admin_activity_logs_notify AFTER INSERT OR UPDATE OR DELETE ON admin_activity_logs
	FOR EACH ROW EXECUTE FUNCTION notify_row_change();

DROP TRIGGER IF EXISTS system_notifications_notify ON system_notifications;
CREATE TRIGGER system_notifications_notify AFTER INSERT OR UPDATE OR DELETE ON system_notifications
	FOR EACH ROW EXECUTE FUNCTION notify_row_change();
`

const rpcAccounts = `
CREATE OR REPLACE FUNCTION admin_log_and_notify(
	p_admin_id UUID, p_action TEXT, p_target_type TEXT, p_target_id UUID, p_target_email TEXT,
	p_details JSONB, p_account_id UUID, p_type TEXT, p_title TEXT, p_message TEXT
) RETURNS VOID AS $$
BEGIN
	INSERT INTO admin_activity_logs (id, admin_id, action, target_type, target_id, target_email, details, created_at)
	VALUES (gen_random_uuid(), p_admin_id, p_action, p_target_type, p_target_id, p_target_email, p_details, NOW());
	IF p_account_id IS NOT NULL THEN
		INSERT INTO provider_notifications (id, account_id, type, title, message, related_entity_type, related_entity_id, created_at)
		VALUES (gen_random_uuid(), p_account_id, p_type, p_title, p_message, p_target_type, p_target_id, NOW());
	END IF;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_approve_user(p_user_id UUID, p_admin_id UUID) RETURNS VOID AS $$
DECLARE v_email TEXT;
BEGIN
	UPDATE accounts SET status = 'approved', approved_at = NOW(), approved_by = p_admin_id,
		rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL,
		suspension_reason = NULL, suspended_at = NULL, updated_at = NOW()
	WHERE id = p_user_id AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'account % not found', p_user_id USING ERRCODE = 'no_data_found'; END IF;
	PERFORM admin_log_and_notify(p_admin_id, 'approve', 'user', p_user_id, v_email, '{}'::jsonb,
		p_user_id, 'account_approved', 'Account approved', 'Your account has been approved.');
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_reject_user(p_user_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_email TEXT;
BEGIN
	UPDATE accounts SET status = 'rejected', rejected_at = NOW(), rejected_by = p_admin_id, rejection_reason = p_reason,
		approved_at = NULL, approved_by = NULL, updated_at = NOW()
	WHERE id = p_user_id AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'account % not found', p_user_id USING ERRCODE = 'no_data_found'; END IF;
	PERFORM admin_log_and_notify(p_admin_id, 'reject', 'user', p_user_id, v_email, jsonb_build_object('reason', p_reason),
		p_user_id, 'account_rejected', 'Account rejected', 'Your account was rejected: ' || p_reason);
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_suspend_user(p_user_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_email TEXT;
BEGIN
	UPDATE accounts SET status = 'suspended', suspension_reason = p_reason, suspended_at = NOW(), updated_at = NOW()
	WHERE id = p_user_id AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'account % not found', p_user_id USING ERRCODE = 'no_data_found'; END IF;
	PERFORM admin_log_and_notify(p_admin_id, 'suspend', 'user', p_user_id, v_email, jsonb_build_object('reason', p_reason),
		p_user_id, 'account_suspended', 'Account suspended', 'Your account was suspended: ' || p_reason);
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_activate_user(p_user_id UUID, p_admin_id UUID) RETURNS VOID AS $$
DECLARE v_email TEXT;
BEGIN
	UPDATE accounts SET status = 'approved', suspension_reason = NULL, suspended_at = NULL, updated_at = NOW()
	WHERE id = p_user_id AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'account % not found', p_user_id USING ERRCODE = 'no_data_found'; END IF;
	PERFORM admin_log_and_notify(p_admin_id, 'activate', 'user', p_user_id, v_email, '{}'::jsonb,
		p_user_id, 'account_activated', 'Account reactivated', 'Your account has been reactivated.');
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_delete_user(p_user_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_email TEXT;
BEGIN
	UPDATE accounts SET deleted_at = NOW(), deletion_reason = p_reason, updated_at = NOW()
	WHERE id = p_user_id AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'account % not found', p_user_id USING ERRCODE = 'no_data_found'; END IF;
	PERFORM admin_log_and_notify(p_admin_id, 'delete', 'user', p_user_id, v_email, jsonb_build_object('reason', p_reason),
		NULL, NULL, NULL, NULL);
END;
$$ LANGUAGE plpgsql;
`

const rpcProviders = `
CREATE OR REPLACE FUNCTION admin_approve_provider(p_provider_id UUID, p_admin_id UUID) RETURNS VOID AS $$
DECLARE v_account UUID; v_email TEXT;
BEGIN
	SELECT account_id INTO v_account FROM providers WHERE id = p_provider_id;
	IF NOT FOUND THEN RAISE EXCEPTION 'provider % not found', p_provider_id USING ERRCODE = 'no_data_found'; END IF;
	UPDATE accounts SET status = 'approved', approved_at = NOW(), approved_by = p_admin_id,
		rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
	WHERE id = v_account AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'provider account % not found', v_account USING ERRCODE = 'no_data_found'; END IF;
	UPDATE providers SET approved_at = NOW(), approved_by = p_admin_id, updated_at = NOW() WHERE id = p_provider_id;
	PERFORM admin_log_and_notify(p_admin_id, 'approve', 'provider', p_provider_id, v_email, '{}'::jsonb,
		v_account, 'provider_approved', 'Provider account approved', 'Your provider account has been approved. You can now publish listings.');
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_reject_provider(p_provider_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_account UUID; v_email TEXT;
BEGIN
	SELECT account_id INTO v_account FROM providers WHERE id = p_provider_id;
	IF NOT FOUND THEN RAISE EXCEPTION 'provider % not found', p_provider_id USING ERRCODE = 'no_data_found'; END IF;
	UPDATE accounts SET status = 'rejected', rejected_at = NOW(), rejected_by = p_admin_id, rejection_reason = p_reason,
		approved_at = NULL, approved_by = NULL, updated_at = NOW()
	WHERE id = v_account AND deleted_at IS NULL RETURNING email INTO v_email;
	IF NOT FOUND THEN RAISE EXCEPTION 'provider account % not found', v_account USING ERRCODE = 'no_data_found'; END IF;
	UPDATE providers SET approved_at = NULL, approved_by = NULL, updated_at = NOW() WHERE id = p_provider_id;
	PERFORM admin_log_and_notify(p_admin_id, 'reject', 'provider', p_provider_id, v_email, jsonb_build_object('reason', p_reason),
		v_account, 'provider_rejected', 'Provider account rejected', 'Your provider account was rejected: ' || p_reason);
END;
$$ LANGUAGE plpgsql;
`

const rpcProperties = `
CREATE OR REPLACE FUNCTION admin_approve_property(p_property_id UUID, p_admin_id UUID) RETURNS VOID AS $$
DECLARE v_provider UUID; v_account UUID; v_title TEXT;
BEGIN
	UPDATE properties SET status = 'published', published_at = NOW(), approved_by = p_admin_id,
		rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
	WHERE id = p_property_id AND deleted_at IS NULL RETURNING provider_id, title INTO v_provider, v_title;
	IF NOT FOUND THEN RAISE EXCEPTION 'property % not found', p_property_id USING ERRCODE = 'no_data_found'; END IF;
	SELECT account_id INTO v_account FROM providers WHERE id = v_provider;
	PERFORM admin_log_and_notify(p_admin_id, 'approve', 'property', p_property_id, NULL, jsonb_build_object('title', v_title),
		v_account, 'property_approved', 'Listing approved', 'Your listing "' || v_title || '" is now live.');
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_reject_property(p_property_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_provider UUID; v_account UUID; v_title TEXT;
BEGIN
	UPDATE properties SET status = 'rejected', rejected_at = NOW(), rejected_by = p_admin_id, rejection_reason = p_reason,
		published_at = NULL, approved_by = NULL, updated_at = NOW()
	WHERE id = p_property_id AND deleted_at IS NULL RETURNING provider_id, title INTO v_provider, v_title;
	IF NOT FOUND THEN RAISE EXCEPTION 'property % not found', p_property_id USING ERRCODE = 'no_data_found'; END IF;
	SELECT account_id INTO v_account FROM providers WHERE id = v_provider;
	PERFORM admin_log_and_notify(p_admin_id, 'reject', 'property', p_property_id, NULL,
		jsonb_build_object('title', v_title, 'reason', p_reason),
		v_account, 'property_rejected', 'Listing rejected', 'Your listing "' || v_title || '" was rejected: ' || p_reason);
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_delete_property(p_property_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_provider UUID; v_account UUID; v_title TEXT;
BEGIN
	UPDATE properties SET deleted_at = NOW(), deletion_reason = p_reason, updated_at = NOW()
	WHERE id = p_property_id AND deleted_at IS NULL RETURNING provider_id, title INTO v_provider, v_title;
	IF NOT FOUND THEN RAISE EXCEPTION 'property % not found', p_property_id USING ERRCODE = 'no_data_found'; END IF;
	SELECT account_id INTO v_account FROM providers WHERE id = v_provider;
	PERFORM admin_log_and_notify(p_admin_id, 'delete', 'property', p_property_id, NULL,
		jsonb_build_object('title', v_title, 'reason', p_reason),
		v_account, 'property_deleted', 'Listing removed', 'Your listing "' || v_title || '" was removed.');
END;
$$ LANGUAGE plpgsql;
`

const rpcPlans = `
CREATE OR REPLACE FUNCTION admin_approve_plan(p_plan_id UUID, p_admin_id UUID) RETURNS VOID AS $$
DECLARE v_provider UUID; v_account UUID; v_title TEXT;
BEGIN
	UPDATE architectural_plans SET status = 'published', approved_at = NOW(), approved_by = p_admin_id,
		rejection_reason = NULL, rejected_at = NULL, rejected_by = NULL, updated_at = NOW()
	WHERE id = p_plan_id AND deleted_at IS NULL RETURNING provider_id, title INTO v_provider, v_title;
	IF NOT FOUND THEN RAISE EXCEPTION 'plan % not found', p_plan_id USING ERRCODE = 'no_data_found'; END IF;
	SELECT account_id INTO v_account FROM providers WHERE id = v_provider;
	PERFORM admin_log_and_notify(p_admin_id, 'approve', 'plan', p_plan_id, NULL, jsonb_build_object('title', v_title),
		v_account, 'plan_approved', 'Plan approved', 'Your plan "' || v_title || '" is now published.');
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION admin_reject_plan(p_plan_id UUID, p_admin_id UUID, p_reason TEXT) RETURNS VOID AS $$
DECLARE v_provider UUID; v_account UUID; v_title TEXT;
BEGIN
	UPDATE architectural_plans SET status = 'rejected', rejected_at = NOW(), rejected_by = p_admin_id, rejection_reason = p_reason,
		approved_at = NULL, approved_by = NULL, updated_at = NOW()
	WHERE id = p_plan_id AND deleted_at IS NULL RETURNING provider_id, title INTO v_provider, v_title;
	IF NOT FOUND THEN RAISE EXCEPTION 'plan % not found', p_plan_id USING ERRCODE = 'no_data_found'; END IF;
	SELECT account_id INTO v_account FROM providers WHERE id = v_provider;
	PERFORM admin_log_and_notify(p_admin_id, 'reject', 'plan', p_plan_id, NULL,
		jsonb_build_object('title', v_title, 'reason', p_reason),
		v_account, 'plan_rejected', 'Plan rejected', 'Your plan "' || v_title || '" was rejected: ' || p_reason);
END;
$$ LANGUAGE plpgsql;
`
