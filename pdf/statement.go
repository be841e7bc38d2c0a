// Package pdf renders settlement statements.
package pdf

import (
	"fmt"
	"time"

	"github.com/diewo77/haulage/i18n"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// StatementDocument is everything printed on a statement.
type StatementDocument struct {
	Company       string
	PartyName     string
	CalculationID string
	Date          time.Time
	Lang          string
	Statement     settlement.Statement
	// LedgerChanged prints a notice that the tables were edited after the
	// totals were saved.
	LedgerChanged bool
}

// printable lists the languages the built-in PDF fonts can render.
var printable = map[string]bool{i18n.English: true}

var (
	titleStyle  = props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center}
	headStyle   = props.Text{Size: 9, Style: fontstyle.Bold, Top: 1}
	headRight   = props.Text{Size: 9, Style: fontstyle.Bold, Top: 1, Align: align.Right}
	cellStyle   = props.Text{Size: 8, Top: 1}
	cellRight   = props.Text{Size: 8, Top: 1, Align: align.Right}
	sectionHead = props.Text{Size: 10, Style: fontstyle.Bold, Top: 2}
)

// RenderStatement returns the statement as PDF bytes.
func RenderStatement(doc StatementDocument) ([]byte, error) {
	lang := doc.Lang
	if !printable[lang] {
		lang = i18n.Default
	}
	tr := func(code string) string { return i18n.T(lang, code) }
	st := doc.Statement

	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(12).
		WithRightMargin(10).
		Build()
	m := maroto.New(cfg)

	party := tr("driver")
	if st.Ownership == settlement.OwnershipFleet {
		party = tr("fleet_owner")
	}
	m.AddRow(10, text.NewCol(12, tr("statement_title"), titleStyle))
	if doc.Company != "" {
		m.AddRow(6, text.NewCol(12, doc.Company, props.Text{Size: 10, Align: align.Center}))
	}
	date := doc.Date
	if date.IsZero() {
		date = time.Now()
	}
	m.AddRow(6,
		text.NewCol(6, party+": "+doc.PartyName, cellStyle),
		text.NewCol(6, tr("date")+": "+date.Format("02-01-2006"), cellRight),
	)
	if doc.CalculationID != "" {
		m.AddRow(6, text.NewCol(12, tr("calculation_id")+": "+doc.CalculationID, cellStyle))
	}

	if doc.LedgerChanged {
		m.AddRow(7, text.NewCol(12, tr("ledger_changed"), props.Text{Size: 8, Style: fontstyle.Italic, Top: 2}))
	}

	m.AddRows(linesTable(tr("advances"), st.Lines.Advances, tr)...)
	m.AddRows(linesTable(tr("expenses"), st.Lines.Expenses, tr)...)
	m.AddRows(rowsBlock(tr("km_block"), st.KmBlock, tr)...)
	m.AddRows(rowsBlock(tr("summary"), st.Summary, tr)...)
	m.AddRow(8, text.NewCol(12, tr(settlement.DirectionCode(st.Direction, st.Ownership)), props.Text{Size: 10, Style: fontstyle.Bold, Top: 2, Align: align.Right}))

	if st.Pod != nil {
		m.AddRows(rowsBlock(tr("pod_block"), st.Pod.Balances, tr)...)
		m.AddRow(6,
			text.NewCol(8, tr("pod_total"), headStyle),
			text.NewCol(4, settlement.Money(st.Pod.Total), headRight),
		)
		m.AddRow(6,
			text.NewCol(8, tr("net_after_pod"), headStyle),
			text.NewCol(4, settlement.Money(st.Pod.NetAfterPod), headRight),
		)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate statement pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func linesTable(title string, lines []settlement.Line, tr func(string) string) []core.Row {
	rows := []core.Row{
		row.New(8).Add(text.NewCol(12, title, sectionHead)),
		row.New(6).Add(
			text.NewCol(2, tr("date"), headStyle),
			text.NewCol(2, tr("trip"), headStyle),
			text.NewCol(4, tr("reason"), headStyle),
			text.NewCol(2, tr("recipient"), headStyle),
			text.NewCol(2, tr("amount"), headRight),
		),
	}
	for _, l := range lines {
		reason := l.Reason
		if l.Placeholder {
			reason = tr("no_records")
		}
		date := ""
		if !l.Date.IsZero() {
			date = l.Date.Format("02-01-2006")
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(2, date, cellStyle),
			text.NewCol(2, l.TripNumber, cellStyle),
			text.NewCol(4, reason, cellStyle),
			text.NewCol(2, l.Recipient, cellStyle),
			text.NewCol(2, settlement.Money(l.Amount), cellRight),
		))
	}
	return rows
}

// rowsBlock prints labelled amounts. label maps a row code to its caption;
// POD rows carry the trip number as label instead of a code.
func rowsBlock(title string, items []settlement.Row, label func(string) string) []core.Row {
	rows := []core.Row{row.New(8).Add(text.NewCol(12, title, sectionHead))}
	for _, it := range items {
		caption := label(it.Code)
		if it.Code == "pod_balance" {
			caption = it.Label
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(8, caption, cellStyle),
			text.NewCol(4, settlement.Money(it.Amount), cellRight),
		))
	}
	return rows
}
