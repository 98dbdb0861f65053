package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/importer"
	"github.com/conciliar-dev/conciliar/internal/logger"
	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/normalize"
	"github.com/conciliar-dev/conciliar/internal/reconcile"
)

const (
	bankFixture   = "../../testdata/extrato_banco.csv"
	systemFixture = "../../testdata/dados_sistema.csv"
)

func newService(opts ...Option) *Service {
	return NewService(importer.DefaultRegistry(), normalize.New(), opts...)
}

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.Nop())
}

func TestRun_Fixtures(t *testing.T) {
	out, err := newService().Run(quietCtx(), RunParams{BankFile: bankFixture, SystemFile: systemFixture})
	require.NoError(t, err)

	assert.Len(t, out.RunID, 36)
	assert.Empty(t, out.Rejected)

	st := out.Result.Stats
	assert.Equal(t, 3, st.Days)
	assert.Equal(t, 1, st.ReconciledDays)
	assert.Equal(t, 2, st.DaysWithDifferences)
	assert.Equal(t, "33.3", st.Rate.StringFixed(1))
	assert.Equal(t, 5, st.BankRecords)
	assert.Equal(t, 5, st.SystemRecords)

	require.Len(t, out.Result.BankOnly, 1)
	assert.Equal(t, "TX1002", out.Result.BankOnly[0].ExternalID)
	assert.Equal(t, model.SourceBank, out.Result.BankOnly[0].Source)
	require.Len(t, out.Result.SystemOnly, 1)
	assert.Equal(t, model.SourceSystem, out.Result.SystemOnly[0].Source)
	assert.Equal(t, "1200.00", out.Result.SystemOnly[0].AbsAmount().StringFixed(2))

	statuses := map[string]reconcile.Status{}
	for _, d := range out.Result.Summary {
		statuses[d.Date] = d.Status
	}
	assert.Equal(t, reconcile.StatusDifferences, statuses["2025-08-10"])
	assert.Equal(t, reconcile.StatusReconciled, statuses["2025-08-11"])
	assert.Equal(t, reconcile.StatusDifferences, statuses["2025-08-12"])
}

func TestRun_RejectsAreLoggedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	bank := filepath.Join(dir, "extrato.csv")
	require.NoError(t, os.WriteFile(bank, []byte(
		"tipo,data,valor,descricao,id,checksum\n"+
			"CREDIT,2025-08-10,100,ok,TX1,\n"+
			"CREDIT,not-a-date,100,bad,TX2,\n"+
			"TRANSFER,2025-08-10,5,bad,TX3,\n"), 0o644))
	system := filepath.Join(dir, "sistema.csv")
	require.NoError(t, os.WriteFile(system, []byte(
		"situacao,data,cliente,categoria,valor,tipo\n"+
			"Pago,2025-08-10,A,Vendas,100,CREDIT\n"+
			"Pago,2025-08-10,B,Vendas,,CREDIT\n"), 0o644))

	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&logs, "info"))

	out, err := newService().Run(ctx, RunParams{BankFile: bank, SystemFile: system})
	require.NoError(t, err)
	require.Len(t, out.Rejected, 3)
	assert.ErrorIs(t, out.Rejected[0], normalize.ErrInvalidDate)
	assert.ErrorIs(t, out.Rejected[1], normalize.ErrInvalidDirection)
	assert.ErrorIs(t, out.Rejected[2], normalize.ErrIncompleteRow)
	assert.Equal(t, 3, out.Rejected[2].Line)
	assert.Equal(t, model.SourceBank, out.Rejected[0].Source)
	assert.Equal(t, model.SourceSystem, out.Rejected[2].Source)

	assert.True(t, out.Result.Stats.FullyReconciled())
	assert.Contains(t, logs.String(), `"message":"skipping row"`)
	assert.Contains(t, logs.String(), `"message":"reconciliation complete"`)

	doc := out.JSON()
	assert.Equal(t, out.RunID, doc.RunID)
	assert.Equal(t, 3, doc.Rejected)
}

func TestRun_MissingFile(t *testing.T) {
	_, err := newService().Run(quietCtx(), RunParams{BankFile: "nope.csv", SystemFile: systemFixture})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank file")

	_, err = newService().Run(quietCtx(), RunParams{BankFile: bankFixture, SystemFile: "nope.xlsx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system file")
}

func TestRun_UnsupportedExtension(t *testing.T) {
	_, err := newService().Run(quietCtx(), RunParams{BankFile: "extrato.xls", SystemFile: systemFixture})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(quietCtx())
	cancel()
	_, err := newService().Run(ctx, RunParams{BankFile: bankFixture, SystemFile: systemFixture})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsHistory(t *testing.T) {
	ctx := quietCtx()
	store, err := history.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	fixed := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	svc := newService(WithRecorder(store), WithClock(func() time.Time { return fixed }))

	out, err := svc.Run(ctx, RunParams{
		BankFile:   bankFixture,
		SystemFile: systemFixture,
		SystemName: "upload.csv",
		Origin:     history.OriginAPI,
	})
	require.NoError(t, err)

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	assert.Equal(t, history.OriginAPI, runs[0].Origin)
	assert.Equal(t, "extrato_banco.csv", runs[0].BankFile)
	assert.Equal(t, "upload.csv", runs[0].SystemFile)
	assert.Equal(t, 3, runs[0].Days)
	assert.True(t, fixed.Equal(runs[0].StartedAt))
}

type failingRecorder struct{ history.Recorder }

func (failingRecorder) Record(context.Context, history.Run) error {
	return errors.New("disk full")
}

func TestRun_RecorderFailureFailsRun(t *testing.T) {
	svc := newService(WithRecorder(failingRecorder{}))
	_, err := svc.Run(quietCtx(), RunParams{BankFile: bankFixture, SystemFile: systemFixture})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOutcome_Sheets(t *testing.T) {
	out, err := newService().Run(quietCtx(), RunParams{BankFile: bankFixture, SystemFile: systemFixture})
	require.NoError(t, err)
	assert.Len(t, out.Sheets(), 4)
}

func TestSupports(t *testing.T) {
	svc := newService()
	assert.True(t, svc.Supports("a.xlsx"))
	assert.False(t, svc.Supports("a.xls"))
	assert.Equal(t, []string{".xlsx", ".csv"}, svc.Formats())
}
