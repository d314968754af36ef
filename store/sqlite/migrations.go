package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the benefits store (SQLite).
var Migrations = migrate.NewGroup("benefits")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_benefits_plans",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS benefits_plans (
    id                 TEXT PRIMARY KEY,
    company_id         TEXT NOT NULL,
    name               TEXT NOT NULL DEFAULT '',
    description        TEXT NOT NULL DEFAULT '',
    currency           TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'active',
    employee_cost      INTEGER NOT NULL DEFAULT 0,
    employee_percent   TEXT NOT NULL DEFAULT '0',
    spouse_cost        INTEGER NOT NULL DEFAULT 0,
    spouse_percent     TEXT NOT NULL DEFAULT '0',
    child_cost         INTEGER NOT NULL DEFAULT 0,
    child_percent      TEXT NOT NULL DEFAULT '0',
    required_documents TEXT NOT NULL DEFAULT '[]',
    metadata           TEXT NOT NULL DEFAULT '{}',
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benefits_plans_company ON benefits_plans (company_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS benefits_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_benefits_employees",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS benefits_employees (
    id         TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    person_id  TEXT NOT NULL DEFAULT '',
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benefits_employees_company ON benefits_employees (company_id);

CREATE TABLE IF NOT EXISTS benefits_persons (
    id            TEXT PRIMARY KEY,
    employee_id   TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    date_of_birth TEXT,
    verified_at   TEXT,
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benefits_persons_employee ON benefits_persons (employee_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS benefits_persons;
DROP TABLE IF EXISTS benefits_employees;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_benefits_subscriptions",
			Version: "20260301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS benefits_subscriptions (
    id             TEXT PRIMARY KEY,
    company_id     TEXT NOT NULL,
    employee_id    TEXT NOT NULL,
    plan_id        TEXT NOT NULL,
    type           TEXT NOT NULL DEFAULT 'individual',
    items          TEXT NOT NULL DEFAULT '[]',
    status         TEXT NOT NULL,
    steps          TEXT NOT NULL DEFAULT '[]',
    start_date     TEXT NOT NULL,
    end_date       TEXT,
    billing_anchor INTEGER NOT NULL DEFAULT 1,
    version        INTEGER NOT NULL DEFAULT 0,
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benefits_subs_company ON benefits_subscriptions (company_id, status);
CREATE INDEX IF NOT EXISTS idx_benefits_subs_status ON benefits_subscriptions (status);
CREATE INDEX IF NOT EXISTS idx_benefits_subs_plan ON benefits_subscriptions (plan_id, status);
CREATE INDEX IF NOT EXISTS idx_benefits_subs_employee ON benefits_subscriptions (employee_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS benefits_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_benefits_wallets",
			Version: "20260301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS benefits_wallets (
    id                    TEXT PRIMARY KEY,
    employee_id           TEXT NOT NULL,
    company_id            TEXT NOT NULL,
    balance               INTEGER NOT NULL DEFAULT 0,
    currency              TEXT NOT NULL,
    last_debit_sufficient INTEGER,
    version               INTEGER NOT NULL DEFAULT 0,
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_benefits_wallets_employee ON benefits_wallets (employee_id);
CREATE INDEX IF NOT EXISTS idx_benefits_wallets_company ON benefits_wallets (company_id);

CREATE TABLE IF NOT EXISTS benefits_transactions (
    id              TEXT PRIMARY KEY,
    wallet_id       TEXT NOT NULL,
    employee_id     TEXT NOT NULL,
    kind            TEXT NOT NULL,
    amount          INTEGER NOT NULL,
    balance_after   INTEGER NOT NULL,
    currency        TEXT NOT NULL,
    sufficient      INTEGER NOT NULL DEFAULT 1,
    subscription_id TEXT NOT NULL DEFAULT '',
    period          TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_benefits_txns_employee ON benefits_transactions (employee_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_benefits_txns_debit_period
    ON benefits_transactions (subscription_id, period) WHERE kind = 'debit';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS benefits_transactions;
DROP TABLE IF EXISTS benefits_wallets;
`)
				return err
			},
		},
	)
}
