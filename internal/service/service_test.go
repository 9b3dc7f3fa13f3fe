package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/installment"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
	"github.com/cleared-dev/tally/internal/recurring"
	"github.com/cleared-dev/tally/internal/store"
)

var (
	march = calendar.YearMonth{Year: 2026, Month: time.March}
	april = calendar.YearMonth{Year: 2026, Month: time.April}
)

func newTestService(t *testing.T) (*Service, *store.SQLite, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(dir, "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var logs bytes.Buffer
	svc := New(st, Options{
		Logger:    zerolog.New(&logs),
		NewID:     id.Sequence("id"),
		Now:       func() time.Time { return time.Date(2026, 3, 18, 9, 30, 0, 0, time.UTC) },
		ExportDir: filepath.Join(dir, "exports"),
	})
	return svc, st, &logs
}

func addVisa(t *testing.T, svc *Service) model.Card {
	t.Helper()
	c, err := svc.AddCard(context.Background(), model.Card{
		ID: "visa", Name: "Visa", CreditLimit: money.FromCents(500000), ClosingDay: 25, DueDay: 5,
	})
	require.NoError(t, err)
	return c
}

func TestAddTransaction_Defaults(t *testing.T) {
	svc, _, logs := newTestService(t)
	ctx := context.Background()

	txn, err := svc.AddTransaction(ctx, model.Transaction{
		Description: "Café", Amount: money.FromCents(850), Kind: model.KindExpense, Category: "food",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", txn.ID)
	assert.Equal(t, calendar.Date(2026, 3, 18), txn.Date)
	assert.Equal(t, model.Settled, txn.Settlement)
	assert.Equal(t, "Food", txn.Category, "canonical spelling")
	assert.Contains(t, logs.String(), `"component":"service"`)
	assert.Contains(t, logs.String(), "transaction added")

	got, err := svc.Transactions(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, []model.Transaction{txn}, got)
}

func TestAddTransaction_Rejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, model.Transaction{Description: "x", Kind: model.KindExpense})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddTransaction(ctx, model.Transaction{
		Description: "x", Amount: money.FromCents(1), Kind: model.KindExpense, CardID: "ghost",
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddPurchase(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	addVisa(t, svc)

	txns, err := svc.AddPurchase(ctx, installment.Purchase{
		Date: calendar.Date(2026, 1, 31), Description: "Notebook", Amount: money.FromCents(100000),
		CardID: "visa", Count: 3,
	})
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, calendar.Date(2026, 2, 28), txns[1].Date)
	assert.Equal(t, "Other", txns[0].Category)

	l, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 3)

	_, err = svc.AddPurchase(ctx, installment.Purchase{Description: "x", Amount: money.FromCents(1), Count: 0})
	assert.ErrorIs(t, err, model.ErrInvalidInstallmentCount)
	_, err = svc.AddPurchase(ctx, installment.Purchase{Description: "x", Amount: money.FromCents(1), Count: 2, CardID: "amex"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGenerate_Idempotent(t *testing.T) {
	svc, _, logs := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddRule(ctx, model.FixedExpenseRule{Day: 31, Description: "Aluguel", Amount: money.FromCents(150000), Category: "Housing"})
	require.NoError(t, err)
	_, err = svc.AddRule(ctx, model.FixedExpenseRule{Day: 5, Description: "Salário", Amount: money.FromCents(800000), Kind: model.KindIncome})
	require.NoError(t, err)

	res, err := svc.Generate(ctx, GenerateRequest{Month: april})
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Created: 2}, res.Summary)

	res, err = svc.Generate(ctx, GenerateRequest{Month: april})
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Skipped: 2}, res.Summary)
	assert.Contains(t, logs.String(), "rules already generated")

	res, err = svc.Generate(ctx, GenerateRequest{Month: april, Force: true})
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Skipped: 2}, res.Summary, "content match still dedupes")

	txns, err := svc.Transactions(ctx, april)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, calendar.Date(2026, 4, 5), txns[0].Date)
	assert.Equal(t, calendar.Date(2026, 4, 30), txns[1].Date)
}

func TestGenerate_ConcurrentRunsCreateOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddRule(ctx, model.FixedExpenseRule{Day: 10, Description: "Academia", Amount: money.FromCents(9990)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(ctx, GenerateRequest{Month: april, Force: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	txns, err := svc.Transactions(ctx, april)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestGenerate_NewRuleRunsAgain(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddRule(ctx, model.FixedExpenseRule{Day: 10, Description: "Academia", Amount: money.FromCents(9990)})
	require.NoError(t, err)
	_, err = svc.Generate(ctx, GenerateRequest{Month: april})
	require.NoError(t, err)

	_, err = svc.AddRule(ctx, model.FixedExpenseRule{Day: 15, Description: "Internet", Amount: money.FromCents(12000)})
	require.NoError(t, err)
	res, err := svc.Generate(ctx, GenerateRequest{Month: april})
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Created: 1, Skipped: 1}, res.Summary)
	assert.Equal(t, recurring.OutcomeDuplicate, res.Rules[0].Outcome)
}

func TestImportApproveAndSummary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetOpeningBalance(ctx, money.FromCents(100000)))

	statement := "Data;Histórico;Valor\n" +
		"02/03/2026;IFOOD *PEDIDO;-45,90\n" +
		"03/03/2026;UBER *TRIP;-12,00\n" +
		"xx/03/2026;BROKEN;1,00\n"
	rep, err := svc.Import(ctx, strings.NewReader(statement), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Created: 2, Rejected: 1}, rep.Summary)

	sum, err := svc.Summary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, sum.Expense, "pending rows do not count")
	assert.Equal(t, 2, sum.Pending)

	n, err := svc.ApproveMonth(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sum, err = svc.Summary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(5790), sum.Expense)
	assert.Equal(t, money.FromCents(100000-5790), sum.FinalBalance)

	breakdown, err := svc.Breakdown(ctx, march)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Food", breakdown[0].Category)

	err = svc.Approve(ctx, rep.Transactions[0].ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestImport_HeaderNotFoundSavesNothing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, strings.NewReader("foo;bar\n1;2\n"), ImportOptions{})
	assert.ErrorIs(t, err, model.ErrHeaderNotFound)

	_, err = svc.Import(ctx, strings.NewReader("date,amount\n"), ImportOptions{Format: "ofx"})
	assert.ErrorIs(t, err, model.ErrValidation)

	l, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, l.Transactions)
}

func TestImportFiles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	addVisa(t, svc)

	dir := t.TempDir()
	good := filepath.Join(dir, "fatura.csv")
	bad := filepath.Join(dir, "junk.csv")
	require.NoError(t, os.WriteFile(good, []byte("date,amount,title\n2026-02-10,100.00,NETFLIX\n2026-02-11,50.00,SPOTIFY\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("nothing here\n"), 0o644))
	missing := filepath.Join(dir, "missing.csv")

	reports, err := svc.ImportFiles(ctx, []string{good, bad, missing}, ImportOptions{CardID: "visa", MarkProcessed: true})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	require.NoError(t, reports[0].Err)
	assert.Equal(t, 2, reports[0].Report.Summary.Created)
	assert.ErrorIs(t, reports[1].Err, model.ErrHeaderNotFound)
	assert.Error(t, reports[2].Err)

	assert.FileExists(t, filepath.Join(dir, "processed", "fatura.csv"))
	assert.FileExists(t, bad, "failed files stay in the inbox")

	inv, err := svc.Invoice(ctx, "visa", march)
	require.NoError(t, err)
	assert.Len(t, inv.Pending, 2)
	for _, txn := range inv.Pending {
		assert.Equal(t, "visa", txn.CardID)
	}

	_, err = svc.ImportFiles(ctx, []string{good}, ImportOptions{CardID: "amex"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPayInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	addVisa(t, svc)

	_, err := svc.AddTransaction(ctx, model.Transaction{
		Date: calendar.Date(2026, 2, 20), Description: "Mercado", Amount: money.FromCents(30000),
		Kind: model.KindExpense, CardID: "visa",
	})
	require.NoError(t, err)

	payment, err := svc.PayInvoice(ctx, "visa", march, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(30000), payment.Amount)
	assert.Equal(t, calendar.Date(2026, 3, 5), payment.Date)

	inv, err := svc.Invoice(ctx, "visa", march)
	require.NoError(t, err)
	assert.True(t, inv.Paid)

	sum, err := svc.Summary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(30000), sum.Expense)

	_, err = svc.PayInvoice(ctx, "visa", march, time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	txns, err := svc.AddPurchase(ctx, installment.Purchase{
		Date: calendar.Date(2026, 3, 1), Description: "Sofa", Amount: money.FromCents(90000), Count: 3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, txns[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, txns[0].ID), model.ErrNotFound)

	l, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 2)
}

func TestGoalsAndReceivables(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	g, err := svc.AddGoal(ctx, model.Goal{Name: "Viagem", Target: money.FromCents(100000)})
	require.NoError(t, err)
	g, err = svc.UpdateGoal(ctx, g.ID, money.FromCents(25000))
	require.NoError(t, err)
	assert.Equal(t, int64(2500), g.Progress())
	_, err = svc.UpdateGoal(ctx, "nope", money.Zero)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.AddGoal(ctx, model.Goal{Name: "x"})
	assert.ErrorIs(t, err, model.ErrValidation)

	r, err := svc.AddReceivable(ctx, model.Receivable{Debtor: "Ana", Description: "Show", Amount: money.FromCents(12000)})
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2026, 3, 18), r.ExpectedDate)

	txn, err := svc.PayReceivable(ctx, r.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.KindIncome, txn.Kind)
	assert.Equal(t, "Ana: Show", txn.Description)

	sum, err := svc.Summary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(12000), sum.Income)

	_, err = svc.PayReceivable(ctx, r.ID, time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestBackupRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	addVisa(t, svc)
	require.NoError(t, svc.SetOpeningBalance(ctx, money.FromCents(5000)))
	_, err := svc.AddRule(ctx, model.FixedExpenseRule{Day: 10, Description: "Academia", Amount: money.FromCents(9990)})
	require.NoError(t, err)
	_, err = svc.AddPurchase(ctx, installment.Purchase{
		Date: calendar.Date(2026, 2, 1), Description: "TV", Amount: money.FromCents(100000), CardID: "visa", Count: 2,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportBackup(ctx, &buf))
	assert.Contains(t, buf.String(), `"version": 1`)
	assert.Contains(t, buf.String(), `"amount": "500.00"`)
	want, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	other, _, _ := newTestService(t)
	b, err := other.RestoreBackup(ctx, &buf)
	require.NoError(t, err)
	assert.Contains(t, b.Categories, "Food")

	got, err := other.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreBackup_Rejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RestoreBackup(ctx, strings.NewReader("{"))
	assert.ErrorContains(t, err, "decoding backup")

	_, err = svc.RestoreBackup(ctx, strings.NewReader(`{"version": 9, "ledger": {}}`))
	assert.ErrorIs(t, err, model.ErrValidation)

	bad := `{"version": 1, "ledger": {"transactions": [
		{"id": "a", "date": "2026-03-01T00:00:00Z", "description": "x", "amount": "1.00", "kind": "expense", "settlement": "settled"},
		{"id": "a", "date": "2026-03-01T00:00:00Z", "description": "x", "amount": "1.00", "kind": "expense", "settlement": "settled"}
	]}}`
	_, err = svc.RestoreBackup(ctx, strings.NewReader(bad))
	assert.ErrorContains(t, err, "duplicate id")
}

func TestExportMonth(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.AddTransaction(ctx, model.Transaction{Description: "Pão", Amount: money.FromCents(700), Kind: model.KindExpense})
	require.NoError(t, err)

	path, err := svc.ExportMonth(ctx, march)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pão,7.00,expense")
}

func TestRestoreMonth(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RestoreMonth(ctx, march)
	assert.ErrorIs(t, err, model.ErrNotFound)

	txn, err := svc.AddTransaction(ctx, model.Transaction{Description: "Feira", Amount: money.FromCents(3200), Kind: model.KindExpense})
	require.NoError(t, err)
	path, err := svc.ExportMonth(ctx, march)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, txn.ID))

	// Edit the amount in the file before reading it back.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "32.00", "35.00", 1)), 0o644))

	n, err := svc.RestoreMonth(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Transactions(ctx, march)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, txn.ID, got[0].ID)
	assert.Equal(t, money.FromCents(3500), got[0].Amount)
}
