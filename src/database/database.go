package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/finanzas/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	// Foreign keys are off by default in sqlite.
	if _, err := DB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		stdlog.Printf("failed to enable foreign keys: %v", err)
	}

	if logger.L != nil {
		logger.L.Info("Checking database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		auth_provider TEXT DEFAULT 'local',
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS notification_preferences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		timezone TEXT NOT NULL DEFAULT 'America/Bogota',
		email_enabled BOOLEAN DEFAULT FALSE,
		budget_alerts_enabled BOOLEAN DEFAULT TRUE,
		bill_reminders_enabled BOOLEAN DEFAULT TRUE,
		soat_alerts_enabled BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		currency TEXT NOT NULL,
		current_balance INTEGER NOT NULL DEFAULT 0,
		credit_limit INTEGER,
		gmf_exempt BOOLEAN DEFAULT FALSE,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		icon TEXT DEFAULT '',
		color TEXT DEFAULT '',
		sort_order INTEGER DEFAULT 0,
		is_default BOOLEAN DEFAULT FALSE,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_type_name
		ON categories(user_id, type, name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		origin_account_id INTEGER NOT NULL,
		destination_account_id INTEGER,
		category_id INTEGER,
		applied_rule_id INTEGER,
		goal_id INTEGER,
		type INTEGER NOT NULL,
		date TEXT NOT NULL,
		description TEXT DEFAULT '',
		tag TEXT DEFAULT '',
		note TEXT DEFAULT '',
		base_amount INTEGER NOT NULL,
		tax_percentage INTEGER NOT NULL DEFAULT 0,
		taxed_amount INTEGER NOT NULL DEFAULT 0,
		gmf_amount INTEGER NOT NULL DEFAULT 0,
		capital_amount INTEGER NOT NULL DEFAULT 0,
		interest_amount INTEGER NOT NULL DEFAULT 0,
		total_amount INTEGER NOT NULL,
		transaction_currency TEXT,
		exchange_rate TEXT,
		original_amount INTEGER,
		conversion_warning TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(origin_account_id) REFERENCES accounts(id),
		FOREIGN KEY(destination_account_id) REFERENCES accounts(id),
		FOREIGN KEY(category_id) REFERENCES categories(id),
		FOREIGN KEY(goal_id) REFERENCES goals(id)
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_date
		ON transactions(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_category
		ON transactions(user_id, category_id);

	CREATE TABLE IF NOT EXISTS budgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		category_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		calculation_mode TEXT NOT NULL DEFAULT 'total',
		period TEXT NOT NULL DEFAULT 'monthly',
		start_date TEXT NOT NULL,
		alert_threshold INTEGER NOT NULL DEFAULT 80,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(category_id) REFERENCES categories(id),
		UNIQUE(user_id, category_id, period, currency)
	);

	CREATE TABLE IF NOT EXISTS goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		target_amount INTEGER NOT NULL,
		saved_amount INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'COP',
		due_date TEXT,
		description TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS bills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		amount INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		suggested_account_id INTEGER,
		category_id INTEGER,
		reminder_days_before INTEGER NOT NULL DEFAULT 3,
		is_recurring BOOLEAN DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_transaction_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(suggested_account_id) REFERENCES accounts(id),
		FOREIGN KEY(category_id) REFERENCES categories(id),
		FOREIGN KEY(payment_transaction_id) REFERENCES transactions(id)
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		plate TEXT NOT NULL,
		brand TEXT DEFAULT '',
		model TEXT DEFAULT '',
		year INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, plate)
	);

	CREATE TABLE IF NOT EXISTS soats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		vehicle_id INTEGER NOT NULL,
		insurer TEXT DEFAULT '',
		issue_date TEXT NOT NULL,
		expiry_date TEXT NOT NULL,
		cost INTEGER NOT NULL,
		alert_days_before INTEGER NOT NULL DEFAULT 7,
		status TEXT NOT NULL DEFAULT 'vigente',
		payment_transaction_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(vehicle_id) REFERENCES vehicles(id),
		FOREIGN KEY(payment_transaction_id) REFERENCES transactions(id)
	);

	CREATE TABLE IF NOT EXISTS rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		criteria_type TEXT NOT NULL,
		keyword TEXT,
		target_transaction_type INTEGER,
		action_type TEXT NOT NULL,
		target_category_id INTEGER,
		target_tag TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		rule_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(target_category_id) REFERENCES categories(id),
		UNIQUE(user_id, name)
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		budget_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		percentage REAL NOT NULL DEFAULT 0,
		spent INTEGER NOT NULL DEFAULT 0,
		message TEXT DEFAULT '',
		is_read BOOLEAN DEFAULT FALSE,
		read_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(budget_id) REFERENCES budgets(id),
		UNIQUE(user_id, budget_id, alert_type, year, month)
	);

	CREATE TABLE IF NOT EXISTS bill_reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		bill_id INTEGER NOT NULL,
		reminder_type TEXT NOT NULL,
		message TEXT DEFAULT '',
		is_read BOOLEAN DEFAULT FALSE,
		read_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(bill_id) REFERENCES bills(id)
	);

	CREATE TABLE IF NOT EXISTS soat_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		soat_id INTEGER NOT NULL,
		alert_type TEXT NOT NULL,
		message TEXT DEFAULT '',
		is_read BOOLEAN DEFAULT FALSE,
		read_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(soat_id) REFERENCES soats(id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		reference_type TEXT DEFAULT '',
		reference_id INTEGER DEFAULT 0,
		title TEXT NOT NULL,
		body TEXT DEFAULT '',
		is_read BOOLEAN DEFAULT FALSE,
		read_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	migrateTransactionsTable()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateTransactionsTable adds columns introduced after the first release.
func migrateTransactionsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'transactions' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transactions)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'transactions'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'transactions'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'transactions'", "error", err)
		}
		return
	}

	if _, ok := columnExists["conversion_warning"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN conversion_warning TEXT DEFAULT ''")
		if err != nil {
			logger.L.Error("Error adding 'conversion_warning' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'conversion_warning' column to 'transactions' table")
		}
	}

	if _, ok := columnExists["goal_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN goal_id INTEGER REFERENCES goals(id)")
		if err != nil {
			logger.L.Error("Error adding 'goal_id' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'goal_id' column to 'transactions' table")
		}
	}
}
