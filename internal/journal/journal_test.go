package journal

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/calendar"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/installment"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/money"
)

func date(y int, m time.Month, d int) time.Time { return calendar.Date(y, m, d) }

func sample() []model.Transaction {
	return []model.Transaction{
		{
			ID: "t1", Date: date(2026, 3, 10), Description: `Padaria "Sol", centro`,
			Amount: money.FromCents(1250), Kind: model.KindExpense, Category: "Food",
			Tags: []string{model.TagImported, "weekend"}, Settlement: model.Pending,
		},
		{
			ID: "t2", Date: date(2026, 3, 5), Description: "Salary", Amount: money.FromCents(800000),
			Kind: model.KindIncome, Category: "Salary", Settlement: model.Settled,
		},
		{
			ID: "t3", Date: date(2026, 2, 20), Description: "TV (2/10)", Amount: money.FromCents(25000),
			Kind: model.KindExpense, Category: "Leisure", CardID: "visa", Settlement: model.Settled, Paid: true,
			Tags:        []string{model.TagInstallment},
			Installment: &model.Installment{GroupID: "g1", Index: 2, Total: 10},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	txns := sample()

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns))
	assert.True(t, strings.HasPrefix(buf.String(), "id,date,"))

	got, err := ReadTransactions(&buf)
	require.NoError(t, err)
	assert.Equal(t, txns, got)
}

func TestMarshalTransaction(t *testing.T) {
	row := MarshalTransaction(sample()[2])
	require.Len(t, row, numFields)
	assert.Equal(t, "2026-02-20", row[colDate])
	assert.Equal(t, "250.00", row[colAmount])
	assert.Equal(t, "true", row[colSettled])
	assert.Equal(t, "true", row[colPaid])
	assert.Equal(t, "g1", row[colGroup])
	assert.Equal(t, "2", row[colIndex])
	assert.Equal(t, "10", row[colTotal])

	row = MarshalTransaction(sample()[1])
	assert.Empty(t, row[colTags])
	assert.Empty(t, row[colGroup])
	assert.Empty(t, row[colIndex])
}

func TestUnmarshalTransaction_Errors(t *testing.T) {
	good := MarshalTransaction(sample()[2])
	tests := []struct {
		name string
		col  int
		val  string
		msg  string
	}{
		{"bad date", colDate, "2026-02-30", "parsing date"},
		{"bad amount", colAmount, "abc", "parsing amount"},
		{"bad kind", colKind, "transfer", "kind"},
		{"bad settled", colSettled, "maybe", "parsing settled"},
		{"bad paid", colPaid, "2", "parsing paid"},
		{"bad index", colIndex, "x", "parsing installment_index"},
		{"bad total", colTotal, "", "parsing installment_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := append([]string(nil), good...)
			rec[tt.col] = tt.val
			_, err := UnmarshalTransaction(rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := UnmarshalTransaction(good[:5])
	assert.ErrorContains(t, err, "expected 13 fields")
}

func TestReadTransactions_Empty(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ReadTransactions(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadTransactions_BadRowReportsLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, sample()))
	text := strings.Replace(buf.String(), "2026-03-05", "05/03/2026", 1)

	_, err := ReadTransactions(strings.NewReader(text))
	assert.ErrorContains(t, err, "row 3")
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(sample()))

	parts, err := installment.Split(installment.Purchase{
		Date: date(2026, 1, 15), Description: "Sofa", Amount: money.FromCents(90000),
		Category: "Housing", CardID: "visa", Count: 3,
	}, id.Sequence("s"))
	require.NoError(t, err)
	assert.Empty(t, Validate(parts))

	bad := append([]model.Transaction(nil), parts...)
	bad[1].Installment = &model.Installment{GroupID: parts[0].Installment.GroupID, Index: 1, Total: 3}
	bad[2].CardID = "master"
	bad = append(bad, sample()[0], sample()[0])
	bad[len(bad)-1].Amount = money.Zero

	problems := Validate(bad)
	require.Len(t, problems, 4)
	assert.Contains(t, problems[0].Description, "index 1 repeated")
	assert.Contains(t, problems[1].Description, "card")
	assert.Equal(t, "duplicate id", problems[2].Description)
	assert.Contains(t, problems[3].Description, "amount")
}

func TestService_ExportMonth(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir)
	march := calendar.YearMonth{Year: 2026, Month: time.March}

	path, err := svc.ExportMonth(march, sample())
	require.NoError(t, err)
	assert.Equal(t, svc.MonthPath(march), path)
	assert.FileExists(t, path)
	assert.Contains(t, path, "2026/03/transactions.csv")

	got, err := svc.ReadMonth(march)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{got[0].ID, got[1].ID, got[2].ID}, "sorted by date")

	// Re-export replaces.
	_, err = svc.ExportMonth(march, sample()[:1])
	require.NoError(t, err)
	got, err = svc.ReadMonth(march)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestService_ExportRejectsInvalid(t *testing.T) {
	svc := NewService(t.TempDir())
	march := calendar.YearMonth{Year: 2026, Month: time.March}
	txns := append(sample(), sample()[0])

	_, err := svc.ExportMonth(march, txns)
	assert.ErrorContains(t, err, "duplicate id")
	assert.NoFileExists(t, svc.MonthPath(march))
}

func TestService_ReadMonthMissing(t *testing.T) {
	got, err := NewService(t.TempDir()).ReadMonth(calendar.YearMonth{Year: 2020, Month: time.January})
	require.NoError(t, err)
	assert.Nil(t, got)
}
