package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

const openingBalanceKey = "opening_balance"

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dbPath and migrates it.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) (model.Ledger, error) {
	var l model.Ledger
	var err error

	if l.OpeningBalance, err = s.openingBalance(ctx); err != nil {
		return l, err
	}
	if l.Transactions, err = s.transactions(ctx); err != nil {
		return l, err
	}
	if l.Cards, err = s.cards(ctx); err != nil {
		return l, err
	}
	if l.Rules, err = s.rules(ctx); err != nil {
		return l, err
	}
	if l.Goals, err = s.goals(ctx); err != nil {
		return l, err
	}
	if l.Receivables, err = s.receivables(ctx); err != nil {
		return l, err
	}
	return l, nil
}

func (s *SQLite) openingBalance(ctx context.Context) (money.Money, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, openingBalanceKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return money.Zero, nil
	}
	if err != nil {
		return money.Zero, fmt.Errorf("get opening balance: %w", err)
	}
	cents, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return money.Zero, fmt.Errorf("parse opening balance %q: %w", v, err)
	}
	return money.FromCents(cents), nil
}

const txnColumns = `id, date, description, amount_cents, kind, category, tags, card_id, settled, paid,
	installment_group, installment_index, installment_total`

func (s *SQLite) transactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+txnColumns+` FROM transactions ORDER BY date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t                model.Transaction
			date, kind, tags string
			cents            int64
			settled, paid    bool
			group            sql.NullString
			index, total     sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &date, &t.Description, &cents, &kind, &t.Category, &tags, &t.CardID,
			&settled, &paid, &group, &index, &total); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Amount = money.FromCents(cents)
		t.Kind = model.Kind(kind)
		if tags != "" {
			t.Tags = strings.Split(tags, model.TagSeparator)
		}
		t.Settlement = model.Pending
		if settled {
			t.Settlement = model.Settled
		}
		t.Paid = paid
		if group.Valid {
			t.Installment = &model.Installment{GroupID: group.String, Index: int(index.Int64), Total: int(total.Int64)}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *SQLite) cards(ctx context.Context) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, limit_cents, closing_day, due_day FROM cards ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		var c model.Card
		var limit int64
		if err := rows.Scan(&c.ID, &c.Name, &limit, &c.ClosingDay, &c.DueDay); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.CreditLimit = money.FromCents(limit)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return out, nil
}

func (s *SQLite) rules(ctx context.Context) ([]model.FixedExpenseRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, day, description, category, amount_cents, kind FROM rules ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []model.FixedExpenseRule
	for rows.Next() {
		var r model.FixedExpenseRule
		var cents int64
		var kind string
		if err := rows.Scan(&r.ID, &r.Day, &r.Description, &r.Category, &cents, &kind); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Amount = money.FromCents(cents)
		r.Kind = model.Kind(kind)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return out, nil
}

func (s *SQLite) goals(ctx context.Context) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, target_cents, current_cents FROM goals ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		var g model.Goal
		var target, current int64
		if err := rows.Scan(&g.ID, &g.Name, &target, &current); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Target, g.Current = money.FromCents(target), money.FromCents(current)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (s *SQLite) receivables(ctx context.Context) ([]model.Receivable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, debtor, description, amount_cents, expected_date, paid FROM receivables ORDER BY expected_date, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	defer rows.Close()

	var out []model.Receivable
	for rows.Next() {
		var r model.Receivable
		var cents int64
		var date string
		if err := rows.Scan(&r.ID, &r.Debtor, &r.Description, &cents, &date, &r.Paid); err != nil {
			return nil, fmt.Errorf("scan receivable: %w", err)
		}
		r.Amount = money.FromCents(cents)
		if r.ExpectedDate, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("receivable %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	return out, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveTransactions implements Store.
func (s *SQLite) SaveTransactions(ctx context.Context, txns ...model.Transaction) error {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range txns {
			if err := upsertTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTransaction(ctx context.Context, e execer, t model.Transaction) error {
	if err := model.ValidateTags(t.Tags); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	var (
		group        sql.NullString
		index, total sql.NullInt64
	)
	if t.Installment != nil {
		group = sql.NullString{String: t.Installment.GroupID, Valid: true}
		index = sql.NullInt64{Int64: int64(t.Installment.Index), Valid: true}
		total = sql.NullInt64{Int64: int64(t.Installment.Total), Valid: true}
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO transactions (`+txnColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date, description = excluded.description,
			amount_cents = excluded.amount_cents, kind = excluded.kind,
			category = excluded.category, tags = excluded.tags, card_id = excluded.card_id,
			settled = excluded.settled, paid = excluded.paid,
			installment_group = excluded.installment_group,
			installment_index = excluded.installment_index,
			installment_total = excluded.installment_total`,
		t.ID, t.Date.Format(calendar.ISODate), t.Description, t.Amount.Cents(), string(t.Kind),
		t.Category, strings.Join(t.Tags, model.TagSeparator), t.CardID, t.IsSettled(), t.Paid,
		group, index, total)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTransaction implements Store.
func (s *SQLite) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "transactions", "transaction", id)
}

// deleteByID removes one row. table is always a constant from this file.
func (s *SQLite) deleteByID(ctx context.Context, table, kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return &model.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// SaveCard implements Store.
func (s *SQLite) SaveCard(ctx context.Context, c model.Card) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("card %s: %w", c.ID, err)
	}
	return upsertCard(ctx, s.db, c)
}

func upsertCard(ctx context.Context, e execer, c model.Card) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO cards (id, name, limit_cents, closing_day, due_day) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, limit_cents = excluded.limit_cents,
			closing_day = excluded.closing_day, due_day = excluded.due_day`,
		c.ID, c.Name, c.CreditLimit.Cents(), c.ClosingDay, c.DueDay)
	if err != nil {
		return fmt.Errorf("save card %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCard implements Store. Transactions keep their card id.
func (s *SQLite) DeleteCard(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "cards", "card", id)
}

// SaveRule implements Store.
func (s *SQLite) SaveRule(ctx context.Context, r model.FixedExpenseRule) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	return upsertRule(ctx, s.db, r)
}

func upsertRule(ctx context.Context, e execer, r model.FixedExpenseRule) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO rules (id, day, description, category, amount_cents, kind) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day = excluded.day, description = excluded.description,
			category = excluded.category, amount_cents = excluded.amount_cents, kind = excluded.kind`,
		r.ID, r.Day, r.Description, r.Category, r.Amount.Cents(), string(r.Kind))
	if err != nil {
		return fmt.Errorf("save rule %s: %w", r.ID, err)
	}
	return nil
}

// DeleteRule implements Store.
func (s *SQLite) DeleteRule(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "rules", "rule", id)
}

// SaveGoal implements Store.
func (s *SQLite) SaveGoal(ctx context.Context, g model.Goal) error {
	return upsertGoal(ctx, s.db, g)
}

func upsertGoal(ctx context.Context, e execer, g model.Goal) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO goals (id, name, target_cents, current_cents) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, target_cents = excluded.target_cents,
			current_cents = excluded.current_cents`,
		g.ID, g.Name, g.Target.Cents(), g.Current.Cents())
	if err != nil {
		return fmt.Errorf("save goal %s: %w", g.ID, err)
	}
	return nil
}

// SaveReceivable implements Store.
func (s *SQLite) SaveReceivable(ctx context.Context, r model.Receivable) error {
	return upsertReceivable(ctx, s.db, r)
}

func upsertReceivable(ctx context.Context, e execer, r model.Receivable) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO receivables (id, debtor, description, amount_cents, expected_date, paid) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET debtor = excluded.debtor, description = excluded.description,
			amount_cents = excluded.amount_cents, expected_date = excluded.expected_date, paid = excluded.paid`,
		r.ID, r.Debtor, r.Description, r.Amount.Cents(), r.ExpectedDate.Format(calendar.ISODate), r.Paid)
	if err != nil {
		return fmt.Errorf("save receivable %s: %w", r.ID, err)
	}
	return nil
}

// SetOpeningBalance implements Store.
func (s *SQLite) SetOpeningBalance(ctx context.Context, m money.Money) error {
	return setOpeningBalance(ctx, s.db, m)
}

func setOpeningBalance(ctx context.Context, e execer, m money.Money) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		openingBalanceKey, strconv.FormatInt(m.Cents(), 10))
	if err != nil {
		return fmt.Errorf("save opening balance: %w", err)
	}
	return nil
}

// AcquireGeneration implements Store. The primary key on (rule_set, year, month) makes
// the insert a compare-and-swap across processes.
func (s *SQLite) AcquireGeneration(ctx context.Context, lock model.GenerationLock) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO generation_locks (rule_set, year, month, created_at) VALUES (?, ?, ?, ?)`,
		lock.RuleSet, lock.Year, int(lock.Month), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("acquire generation %s %d-%02d: %w", lock.RuleSet, lock.Year, int(lock.Month), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire generation: %w", err)
	}
	return n == 1, nil
}

// ReleaseGeneration implements Store.
func (s *SQLite) ReleaseGeneration(ctx context.Context, lock model.GenerationLock) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM generation_locks WHERE rule_set = ? AND year = ? AND month = ?`,
		lock.RuleSet, lock.Year, int(lock.Month))
	if err != nil {
		return fmt.Errorf("release generation: %w", err)
	}
	return nil
}

// Replace implements Store.
func (s *SQLite) Replace(ctx context.Context, l model.Ledger) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"transactions", "cards", "rules", "goals", "receivables", "settings", "generation_locks"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := setOpeningBalance(ctx, tx, l.OpeningBalance); err != nil {
			return err
		}
		for _, t := range l.Transactions {
			if err := upsertTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, c := range l.Cards {
			if err := upsertCard(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, r := range l.Rules {
			if err := upsertRule(ctx, tx, r); err != nil {
				return err
			}
		}
		for _, g := range l.Goals {
			if err := upsertGoal(ctx, tx, g); err != nil {
				return err
			}
		}
		for _, r := range l.Receivables {
			if err := upsertReceivable(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}
