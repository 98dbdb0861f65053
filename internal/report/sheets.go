// Package report renders reconciliation results as a workbook, CSV diff
// lists, JSON, and a console summary.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/reconcile"
)

// Sheet names, in workbook order.
const (
	SheetSummary = "Resumo Geral"
	SheetAdd     = "INCLUIR NO SISTEMA"
	SheetRemove  = "EXCLUIR DO SISTEMA"
	SheetDetail  = "Detalhes por Data"
)

// Actions written next to each discrepancy.
const (
	ActionAdd    = "INCLUIR NO SISTEMA"
	ActionRemove = "EXCLUIR DO SISTEMA"
)

// generatedAtFormat renders timestamps the way Brazilian spreadsheets expect.
const generatedAtFormat = "02/01/2006 15:04:05"

// Sheet is one worksheet as a grid of cell values.
type Sheet struct {
	Name   string
	Rows   [][]any
	Header int // index in Rows of the column header line
}

// Sheets lays out a result as the four report worksheets.
func Sheets(res reconcile.Result, generatedAt time.Time) []Sheet {
	return []Sheet{
		summarySheet(res, generatedAt),
		addSheet(res.BankOnly),
		removeSheet(res.SystemOnly),
		detailSheet(res.Detail),
	}
}

func summarySheet(res reconcile.Result, generatedAt time.Time) Sheet {
	st := res.Stats
	rows := [][]any{
		{"RELATÓRIO COMPLETO DE CONCILIAÇÃO BANCÁRIA"},
		{"Gerado em:", generatedAt.Format(generatedAtFormat)},
		{""},
		{"RESUMO GERAL"},
		{"Total de dias analisados:", st.Days},
		{"Dias conciliados:", st.ReconciledDays},
		{"Dias com diferenças:", st.DaysWithDifferences},
		{"Taxa de conciliação:", st.Rate.StringFixed(1) + "%"},
		{"Lançamentos para incluir:", st.ToAdd},
		{"Lançamentos para excluir:", st.ToRemove},
		{""},
		{
			"Data", "Banco - Total", "Banco - Créditos", "Banco - Débitos", "Banco - Qtd Créd", "Banco - Qtd Déb",
			"Sistema - Total", "Sistema - Créditos", "Sistema - Débitos", "Sistema - Qtd Créd", "Sistema - Qtd Déb",
			"Diferença Total", "Diferença Créditos", "Diferença Débitos", "Status",
		},
	}
	header := len(rows) - 1

	for _, d := range res.Summary {
		rows = append(rows, []any{
			d.Date,
			money(d.BankNet),
			money(d.BankCredits),
			money(d.BankDebits),
			d.BankCreditCount,
			d.BankDebitCount,
			money(d.SystemNet),
			money(d.SystemCredits),
			money(d.SystemDebits),
			d.SystemCreditCount,
			d.SystemDebitCount,
			money(d.NetDifference),
			money(d.CreditDifference),
			money(d.DebitDifference),
			string(d.Status),
		})
	}
	return Sheet{Name: SheetSummary, Rows: rows, Header: header}
}

func addSheet(records []model.Transaction) Sheet {
	rows := [][]any{
		{"LANÇAMENTOS PARA INCLUIR NO SISTEMA"},
		{"Total de lançamentos:", len(records)},
		{""},
		{"Data", "Tipo", "Valor", "Descrição", "ID", "Ação"},
	}
	header := len(rows) - 1

	for _, t := range records {
		rows = append(rows, []any{
			t.DateKey(),
			string(t.Direction),
			money(t.Amount),
			t.Description,
			t.ExternalID,
			ActionAdd,
		})
	}
	return Sheet{Name: SheetAdd, Rows: rows, Header: header}
}

func removeSheet(records []model.Transaction) Sheet {
	rows := [][]any{
		{"LANÇAMENTOS PARA EXCLUIR DO SISTEMA"},
		{"Total de lançamentos:", len(records)},
		{""},
		{"Data", "Tipo", "Valor", "Cliente/Fornecedor", "Categoria", "Ação"},
	}
	header := len(rows) - 1

	for _, t := range records {
		rows = append(rows, []any{
			t.DateKey(),
			string(t.Direction),
			money(t.Amount),
			t.Description,
			t.Category,
			ActionRemove,
		})
	}
	return Sheet{Name: SheetRemove, Rows: rows, Header: header}
}

func detailSheet(detail []reconcile.DetailRow) Sheet {
	rows := [][]any{
		{"ANÁLISE DETALHADA POR DATA"},
		{""},
		{"Data", "Origem", "Tipo Transação", "Qtd Total", "Qtd Créditos", "Qtd Débitos", "Valor Total Créditos", "Valor Total Débitos", "Status"},
	}
	header := len(rows) - 1

	for _, d := range detail {
		rows = append(rows, []any{
			d.Date,
			OriginLabel(d.Origin),
			d.Kind,
			d.Count,
			d.CreditCount,
			d.DebitCount,
			money(d.CreditTotal),
			money(d.DebitTotal),
			string(d.Status),
		})
	}
	return Sheet{Name: SheetDetail, Rows: rows, Header: header}
}

// OriginLabel returns the report label for a feed.
func OriginLabel(s model.Source) string {
	switch s {
	case model.SourceBank:
		return "BANCO"
	case model.SourceSystem:
		return "SISTEMA"
	}
	return string(s)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
