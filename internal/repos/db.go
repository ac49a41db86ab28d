package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "shopfront/internal/log"
)

// OpenDB opens the sqlite store, applies the schema and seeds demo data.
// ":memory:" is pinned to one connection so every caller sees the same database.
func OpenDB(dsn string) (*sqlx.DB, error) {
	memory := dsn == ":memory:"
	if !memory {
		dsn = withPragmas(dsn)
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (categories/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

// withPragmas turns on foreign keys, waits on locks instead of failing, and
// makes every write transaction take the write lock up front.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// InTx runs fn inside a transaction, committing only if fn returns nil.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Now is the timestamp format stored in *_at columns; it sorts lexically.
func Now() string { return time.Now().UTC().Format("2006-01-02 15:04:05.000") }

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  sku TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discounted_price NUMERIC NULL CHECK (discounted_price IS NULL OR discounted_price >= 0),
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name));

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  postal_code TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Cart: one row per (user, product)
CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT NOT NULL,
  updated_at TEXT,
  UNIQUE (user_id, product_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  order_number TEXT NOT NULL UNIQUE,
  total_amount NUMERIC NOT NULL CHECK (total_amount >= 0),
  status TEXT NOT NULL DEFAULT 'Pending'
    CHECK (status IN ('Pending','Processing','Shipped','Delivered','Cancelled')),
  shipping_address TEXT NOT NULL DEFAULT '',
  shipping_city TEXT NOT NULL DEFAULT '',
  shipping_postal_code TEXT NOT NULL DEFAULT '',
  phone_number TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status     ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id TEXT PRIMARY KEY,
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Logger().Info("seed.catalog")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name,description) VALUES
	  ('electronics','Electronics','Phones, audio and accessories'),
	  ('apparel','Apparel','Clothing for everyone'),
	  ('home','Home Goods','Kitchen and living'),
	  ('archive','Archive','Retired lines')`)
	tx.MustExec(`UPDATE categories SET active = 0 WHERE id = 'archive'`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,sku,price,discounted_price,stock_quantity,image_url,created_at) VALUES
	  ('headphones-001','electronics','Wireless Headphones','Over-ear, noise cancelling','EL-HP-001',199.00,NULL,12,'/media/products/headphones-001.jpg',CURRENT_TIMESTAMP),
	  ('speaker-001','electronics','Bluetooth Speaker','Portable, waterproof','EL-SP-001',59.90,49.90,3,'/media/products/speaker-001.jpg',CURRENT_TIMESTAMP),
	  ('tshirt-001','apparel','Cotton T-Shirt','Organic cotton crew neck','AP-TS-001',10.00,8.00,40,'',CURRENT_TIMESTAMP),
	  ('jacket-001','apparel','Rain Jacket','Lightweight shell','AP-JK-001',89.00,NULL,0,'',CURRENT_TIMESTAMP),
	  ('mug-001','home','Ceramic Mug','350ml stoneware mug','HM-MG-001',12.50,NULL,25,'',CURRENT_TIMESTAMP),
	  ('kettle-001','home','Electric Kettle','1.7l stainless steel','HM-KT-001',39.00,NULL,2,'',CURRENT_TIMESTAMP)`)
	tx.MustExec(`INSERT INTO products(id,category_id,name,description,sku,price,stock_quantity,active,created_at) VALUES
	  ('walkman-001','archive','Cassette Player','Discontinued','AR-WM-001',25.00,5,0,CURRENT_TIMESTAMP)`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, First, Role, Hash, Address, City, Postal string
	}
	mk := func(id, email, first, role, raw, addr, city, postal string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, First: first, Role: role, Hash: string(h), Address: addr, City: city, Postal: postal}
	}

	users := []u{
		mk("u-alice", "alice@shopfront.test", "Alice", "USER", "Passw0rd!", "1 Main St", "Springfield", "12345"),
		mk("u-bob", "bob@shopfront.test", "Bob", "USER", "Passw0rd!", "", "", ""),
		mk("u-admin", "admin@shopfront.test", "Admin", "ADMIN", "Passw0rd!", "", "", ""),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,first_name,password_hash,role,address,city,postal_code)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.First, x.Hash, x.Role, x.Address, x.City, x.Postal); err != nil {
			return err
		}
	}

	return tx.Commit()
}
