package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-finance/luca/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func txn(id string, d time.Time, concept, amount string) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        d,
		Concept:     concept,
		Amount:      dec(amount),
		Balance:     dec("100"),
		Category:    model.CategoryOther,
		Source:      model.SourceCaixaBank,
		OriginalRow: concept + ";" + d.Format("02/01/2006") + ";" + amount,
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 1201)
	for i := range items {
		items[i] = i
	}

	chunks := Chunk(items, 500)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 201)
	assert.Equal(t, 1000, chunks[2][0])

	assert.Len(t, Chunk(items, 0), 3)
	assert.Empty(t, Chunk([]int(nil), 500))
	assert.Len(t, Chunk([]int{1}, 500), 1)
}

func TestTransactionCSV_RoundTrip(t *testing.T) {
	in := []model.Transaction{
		txn("caixabank-0-01/03/2025", date(2025, 3, 1), "Mercadona, Barcelona", "-45.30"),
		txn("revolut-2-2 Mar 2025", date(2025, 3, 2), `Shop "quoted"`, "12"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, in))

	out, err := ReadTransactions(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].Concept, out[0].Concept)
	assert.True(t, in[0].Amount.Equal(out[0].Amount))
	assert.Equal(t, in[1].Concept, out[1].Concept)
	assert.Equal(t, in[1].Date, out[1].Date)
	assert.Equal(t, "12", MarshalTransaction(in[1])[colAmount])
}

func TestUnmarshalTransaction_Errors(t *testing.T) {
	_, err := UnmarshalTransaction([]string{"a"})
	assert.Error(t, err)

	row := MarshalTransaction(txn("x", date(2025, 1, 1), "X", "-1"))
	row[colDate] = "01/01/2025"
	_, err = UnmarshalTransaction(row)
	assert.ErrorContains(t, err, "parsing date")
}

func TestValidateMonth(t *testing.T) {
	good := txn("a", date(2025, 3, 1), "X", "-10")
	assert.Empty(t, ValidateMonth([]model.Transaction{good}, 2025, 3))

	zero := txn("b", date(2025, 3, 2), "Y", "0")
	badCat := txn("c", date(2025, 3, 3), "Z", "-1")
	badCat.Category = "groceries"
	badSrc := txn("d", date(2025, 3, 4), "W", "-1")
	badSrc.Source = "ing"
	wrongMonth := txn("e", date(2025, 4, 1), "V", "-1")
	repeat := txn("f", date(2025, 3, 1), "X", "-10.00")

	verrs := ValidateMonth([]model.Transaction{good, zero, badCat, badSrc, wrongMonth, repeat}, 2025, 3)
	var rules []string
	for _, ve := range verrs {
		rules = append(rules, ve.Rule)
	}
	assert.ElementsMatch(t, []string{
		"nonzero-amount", "known-category", "known-source", "date-in-month",
	}, rules)
}

func TestLocalStore_SubCentAmounts(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	batch := []model.Transaction{txn("revolut-0-1 Mar 2025", date(2025, 3, 1), "FX fee", "-0.004")}

	added, err := s.Merge(batch)
	require.NoError(t, err)
	require.Len(t, added, 1)

	all, err := s.Load()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "-0.004", all[0].Amount.String())

	// The reloaded row still matches a fresh parse.
	added, err = s.Merge(batch)
	require.NoError(t, err)
	assert.Empty(t, added)

	added, err = s.Merge([]model.Transaction{txn("revolut-1-2 Mar 2025", date(2025, 3, 2), "Y", "-1")})
	require.NoError(t, err)
	assert.Len(t, added, 1, "the month stays writable")
}

func TestLocalStore_RepeatedMovementsInOneBatch(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	coffee := []model.Transaction{
		txn("caixabank-0-01/03/2025", date(2025, 3, 1), "Cafe Sol", "-2.00"),
		txn("caixabank-1-01/03/2025", date(2025, 3, 1), "Cafe Sol", "-2.00"),
	}

	added, err := s.Merge(coffee)
	require.NoError(t, err)
	assert.Len(t, added, 2)

	added, err = s.Merge(coffee)
	require.NoError(t, err)
	assert.Empty(t, added)

	all, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLocalStore_MergeAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	txns, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, txns)

	batch := []model.Transaction{
		txn("caixabank-0-01/03/2025", date(2025, 3, 1), "X", "-10"),
		txn("caixabank-1-28/02/2025", date(2025, 2, 28), "Nomina", "2000"),
	}
	added, err := s.Merge(batch)
	require.NoError(t, err)
	assert.Len(t, added, 2)

	_, err = os.Stat(filepath.Join(dir, "ledger", "2025", "03", "transactions.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "ledger", "2025", "02", "transactions.csv"))
	require.NoError(t, err)

	// Same movements from a later export get new ids but are not re-added.
	again := []model.Transaction{
		txn("caixabank-5-01/03/2025", date(2025, 3, 1), "X", "-10.00"),
		txn("caixabank-6-02/03/2025", date(2025, 3, 2), "Y", "-3"),
	}
	added, err = s.Merge(again)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "Y", added[0].Concept)

	all, err := s.Load()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Nomina", all[0].Concept)
	assert.Equal(t, "X", all[1].Concept)
	assert.Equal(t, "Y", all[2].Concept)

	mar, err := s.ReadMonth(2025, 3)
	require.NoError(t, err)
	assert.Len(t, mar, 2)

	added, err = s.Merge(again)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestLocalStore_MergeRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	ok := txn("a", date(2025, 1, 1), "A", "-1")
	bad := txn("b", date(2025, 2, 1), "B", "-1")
	bad.Category = "nope"

	_, err := s.Merge([]model.Transaction{ok, bad})
	require.ErrorContains(t, err, "known-category")

	all, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is written when any month fails validation")
}

func TestLocalStore_Uploads(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)

	ups, err := s.Uploads()
	require.NoError(t, err)
	assert.Empty(t, ups)

	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendUpload(model.Upload{
		ID: "u1", UserID: "me", Filename: "caixa.csv", Source: model.SourceCaixaBank,
		TransactionCount: 2, DateFrom: date(2025, 2, 28), DateTo: date(2025, 3, 1), CreatedAt: created,
	}))
	require.NoError(t, s.AppendUpload(model.Upload{
		ID: "u2", UserID: "me", Filename: "empty.csv", Source: model.SourceRevolut, CreatedAt: created,
	}))

	ups, err = s.Uploads()
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "u1", ups[0].ID)
	assert.Equal(t, 2, ups[0].TransactionCount)
	assert.Equal(t, date(2025, 2, 28), ups[0].DateFrom)
	assert.Equal(t, created, ups[0].CreatedAt)
	assert.True(t, ups[1].DateFrom.IsZero())
}

func openSQLite(t *testing.T, opts Options) *SQLStore {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "data", "luca.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x", Options{})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestSQLStore_MigrateTwice(t *testing.T) {
	s := openSQLite(t, Options{UserID: "me"})
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, Options{UserID: "me", BatchSize: 2})

	batch := []model.Transaction{
		txn("caixabank-0-01/03/2025", date(2025, 3, 1), "X", "-10"),
		txn("caixabank-1-02/03/2025", date(2025, 3, 2), "Y", "-20.5"),
		txn("caixabank-2-03/03/2025", date(2025, 3, 3), "Z", "300"),
	}
	saved, err := s.SaveTransactions(ctx, "u1", batch)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	// Duplicates are ignored by the uniqueness constraint, not reported as failures.
	dup := txn("caixabank-9-01/03/2025", date(2025, 3, 1), "X", "-10.00")
	saved, err = s.SaveTransactions(ctx, "u2", []model.Transaction{dup})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	got, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Z", got[0].Concept)
	assert.True(t, dec("-20.5").Equal(got[1].Amount))
	assert.True(t, dec("100").Equal(got[1].Balance))
	assert.Equal(t, "caixabank-0-01/03/2025", got[2].ID)
	assert.Equal(t, model.SourceCaixaBank, got[2].Source)
}

func TestSQLStore_SubCentAmounts(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, Options{UserID: "me"})

	fee := txn("revolut-0-1 Mar 2025", date(2025, 3, 1), "FX fee", "-0.004")
	fee.Balance = dec("99.996")
	_, err := s.SaveTransactions(ctx, "u1", []model.Transaction{fee})
	require.NoError(t, err)

	// A fee rounding to the same cent is a different movement.
	other := txn("revolut-1-1 Mar 2025", date(2025, 3, 1), "FX fee", "-0.003")
	_, err = s.SaveTransactions(ctx, "u1", []model.Transaction{fee, other})
	require.NoError(t, err)

	got, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	amounts := []string{got[0].Amount.String(), got[1].Amount.String()}
	assert.ElementsMatch(t, []string{"-0.004", "-0.003"}, amounts)
	for _, g := range got {
		assert.False(t, g.Amount.IsZero())
	}
}

func TestSQLStore_SameMovementOtherSource(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, Options{UserID: "me"})

	a := txn("caixabank-0-01/03/2025", date(2025, 3, 1), "X", "-10")
	b := a
	b.ID = "revolut-0-1 Mar 2025"
	b.Source = model.SourceRevolut

	_, err := s.SaveTransactions(ctx, "u1", []model.Transaction{a, b})
	require.NoError(t, err)

	got, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLStore_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	me, err := Open(ctx, DriverSQLite, path, Options{UserID: "me"})
	require.NoError(t, err)
	defer me.Close()
	require.NoError(t, me.Migrate(ctx))

	you, err := Open(ctx, DriverSQLite, path, Options{UserID: "you"})
	require.NoError(t, err)
	defer you.Close()

	x := txn("a", date(2025, 3, 1), "X", "-10")
	_, err = me.SaveTransactions(ctx, "u1", []model.Transaction{x})
	require.NoError(t, err)
	_, err = you.SaveTransactions(ctx, "u2", []model.Transaction{x})
	require.NoError(t, err)

	mine, err := me.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	yours, err := you.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, yours, 1)
}

func TestSQLStore_FailedChunksAreReported(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, Options{UserID: "me", BatchSize: 2})

	batch := []model.Transaction{
		txn("a", date(2025, 3, 1), "A", "-1"),
		txn("b", date(2025, 3, 2), "B", "-2"),
		txn("c", date(2025, 3, 3), "C", "-3"),
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	saved, err := s.SaveTransactions(canceled, "u1", batch)
	require.ErrorIs(t, err, ErrChunkFailed)
	assert.Zero(t, saved)
	assert.ErrorContains(t, err, "chunk 0 (rows 0-1)")
	assert.ErrorContains(t, err, "chunk 1 (rows 2-2)")

	got, err := s.LoadTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLStore_Uploads(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, Options{UserID: "me"})

	older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	require.NoError(t, s.SaveUpload(ctx, model.Upload{
		ID: "u1", Filename: "caixa.csv", Source: model.SourceCaixaBank, TransactionCount: 3,
		DateFrom: date(2025, 2, 1), DateTo: date(2025, 2, 28), CreatedAt: older,
	}))
	require.NoError(t, s.SaveUpload(ctx, model.Upload{
		ID: "u2", Filename: "revolut.csv", Source: model.SourceRevolut, CreatedAt: newer,
	}))

	ups, err := s.Uploads(ctx)
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "u2", ups[0].ID)
	assert.Equal(t, "me", ups[1].UserID)
	assert.Equal(t, date(2025, 2, 28), ups[1].DateTo)
	assert.Equal(t, older, ups[1].CreatedAt)
	assert.True(t, ups[0].DateFrom.IsZero())

	// Saving an upload again keeps the first record.
	require.NoError(t, s.SaveUpload(ctx, model.Upload{ID: "u1", CreatedAt: newer}))
	ups, err = s.Uploads(ctx)
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "caixa.csv", ups[1].Filename)
}
