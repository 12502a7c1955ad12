package panels

import (
	"database/sql"
	"testing"
	"time"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lote1 = "0100215/2023"
	lote2 = "0200215/2023"
)

func on(m time.Month, d int) sql.NullTime {
	return sql.NullTime{Time: time.Date(2024, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func brl(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

var cfg = Config{
	Contracts: []Contract{{ID: lote1, Label: "Lote 1"}, {ID: lote2, Label: "Lote 2"}},
	DisciplineGroups: []DisciplineGroup{
		{Name: "Civil", Disciplines: []string{"ALVENARIA", "PINTURA"}},
		{Name: "Elétrica", Disciplines: []string{"ELÉTRICA"}},
	},
	Status: metrics.StatusSets{
		Open:   []string{"RECEBIDO", "ORÇADO"},
		Closed: []string{"EXECUTADO", "FINALIZADO"},
	},
	FinalizedStatuses: []string{"EXECUTADO", "FINALIZADO"},
}

var july = Query{
	Range: metrics.Between(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)),
	Day:   time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
}

func orders(t *testing.T) *types.Dataset {
	t.Helper()
	ds, err := types.FromRecords([]types.Record{
		{ContractID: lote1, OrderCode: "OS-1", Status: "EXECUTADO", Discipline: "ELÉTRICA", Technician: "JOÃO",
			Budgeter: "ANA", Priority: "NORMAL", ReceivedDate: on(7, 10), FinalizedDate: on(7, 10), BudgetedDate: on(7, 10),
			BudgetedValue: brl(100), MaterialValue: brl(40), LaborValue: brl(60)},
		{ContractID: lote1, OrderCode: "OS-2", Status: "RECEBIDO", Discipline: "ALVENARIA", Budgeter: "ANA",
			Priority: "URGENTE", ReceivedDate: on(7, 10), BudgetedDate: on(7, 5),
			BudgetedValue: brl(200), MaterialValue: brl(80), LaborValue: brl(120)},
		{ContractID: lote2, OrderCode: "OS-3", Status: "FINALIZADO", Discipline: "PINTURA", Technician: "MARIA",
			ReceivedDate: on(7, 1), FinalizedDate: on(7, 10), BudgetedDate: on(6, 20), BudgetedValue: brl(300)},
		{ContractID: lote2, OrderCode: "OS-4", Status: "ORÇADO", Discipline: "ELÉTRICA", Budgeter: "BETO",
			ReceivedDate: on(6, 15), BudgetedDate: on(7, 10), BudgetedValue: brl(50)},
		{ContractID: lote1, OrderCode: "OS-1", Status: "MEDIÇÃO", Discipline: "ELÉTRICA", ReceivedDate: on(7, 8)},
	}, types.CanonicalColumns())
	require.NoError(t, err)
	return ds
}

func TestDaily(t *testing.T) {
	p, err := Daily(orders(t), cfg, july)
	require.NoError(t, err)

	assert.Equal(t, "2024-07-10", p.Day)
	assert.Equal(t, 5, p.TotalOrders)
	require.Len(t, p.Contracts, 2)
	assert.Equal(t, ContractDaily{Contract: cfg.Contracts[0], Total: 3, ReceivedOnDay: 2, ReceivedInRange: 3, FinalizedOnDay: 1}, p.Contracts[0])
	assert.Equal(t, ContractDaily{Contract: cfg.Contracts[1], Total: 2, ReceivedOnDay: 0, ReceivedInRange: 1, FinalizedOnDay: 1}, p.Contracts[1])

	require.Len(t, p.Completion, 4)
	assert.Equal(t, "Civil", p.Completion[0].Group)
	assert.Equal(t, metrics.Completion(1, 0), p.Completion[0].Rate)
	assert.Equal(t, 100.0, p.Completion[1].Rate.Percentage, "uncategorized MEDIÇÃO is left out")
	assert.Equal(t, 100.0, p.Completion[2].Rate.Percentage)
	assert.Equal(t, 0.0, p.Completion[3].Rate.Percentage)
	assert.True(t, p.Completion[3].Rate.HasData)

	require.Len(t, p.ReceivedPerDay, 3)
	assert.Equal(t, 2, p.ReceivedPerDay[2].Count)

	require.Len(t, p.FinalizedToday, 2)
	assert.Equal(t, []string{"ELÉTRICA", lote1, "JOÃO"}, p.FinalizedToday[0].Values)
	assert.Nil(t, p.Rows)

	q := july
	q.IncludeRows = true
	q.Contract = lote2
	p, err = Daily(orders(t), cfg, q)
	require.NoError(t, err)
	require.Len(t, p.Contracts, 1)
	assert.Len(t, p.Rows, 1)
	assert.Equal(t, "OS-3", p.Rows[0][types.ColOrder])
}

func TestBudget(t *testing.T) {
	p, err := Budget(orders(t), cfg, july)
	require.NoError(t, err)

	assert.Equal(t, "2024-07", p.Month)
	require.Len(t, p.Contracts, 2)
	l1 := p.Contracts[0]
	assert.True(t, decimal.NewFromInt(100).Equal(l1.BudgetedOnDay.Value))
	assert.True(t, decimal.NewFromInt(60).Equal(l1.LaborOnDay.Value))
	assert.Equal(t, 1, l1.BudgetsOnDay)
	assert.True(t, decimal.NewFromInt(300).Equal(l1.BudgetedInMonth.Value))
	assert.Equal(t, "R$ 300,00", l1.BudgetedInMonth.Display)
	assert.True(t, decimal.NewFromInt(120).Equal(l1.MaterialInMonth.Value))
	assert.True(t, decimal.NewFromInt(100).Equal(l1.BudgetedFinalized.Value))

	l2 := p.Contracts[1]
	assert.True(t, decimal.NewFromInt(50).Equal(l2.BudgetedInMonth.Value))
	assert.True(t, decimal.NewFromInt(300).Equal(l2.BudgetedFinalized.Value))
	assert.True(t, decimal.Zero.Equal(l2.MaterialOnDay.Value), "no material amount on the day")

	require.Len(t, p.BudgetsPerDay, 2)
	assert.True(t, decimal.NewFromInt(150).Equal(p.BudgetsPerDay[1].Sum))
	require.Len(t, p.BudgetedPerMonth, 2)
	assert.Equal(t, "2024-06", p.BudgetedPerMonth[0].Key)

	require.Len(t, p.PerBudgeter, 2)
	assert.Equal(t, "ANA", p.PerBudgeter[0].Budgeter)
	assert.Len(t, p.PerBudgeter[0].Days, 2)
	assert.Equal(t, "BETO", p.PerBudgeter[1].Budgeter)
}

func TestWeekly(t *testing.T) {
	p, err := Weekly(orders(t), cfg, july)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Received)
	assert.Equal(t, 2, p.Finalized)
	assert.Equal(t, 3, p.Budgeted)
	assert.Equal(t, 1, p.Open)
	assert.True(t, decimal.NewFromInt(350).Equal(p.BudgetedValue.Value))
	assert.True(t, decimal.NewFromInt(120).Equal(p.MaterialValue.Value))
	assert.True(t, decimal.NewFromInt(180).Equal(p.LaborValue.Value))
	assert.Equal(t, Ratio{Percentage: 50, HasData: true}, p.FinalizedShare)

	require.NotEmpty(t, p.Priorities)
	assert.Equal(t, types.MissingLabel, p.Priorities[0].Key)
	require.NotEmpty(t, p.BudgetedByDiscipline)
	assert.Equal(t, "ALVENARIA", p.BudgetedByDiscipline[0].Key)
}

func TestOverview(t *testing.T) {
	p, err := Overview(orders(t), cfg, july)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Received)
	assert.Equal(t, 3, p.DistinctOrders)
	assert.Equal(t, 1, p.Classification.Uncategorized)
	assert.Equal(t, metrics.Completion(1, 2), p.Completion)
	require.NotNil(t, p.Budget)
	assert.Equal(t, 3, p.Budget.Count)
	require.Len(t, p.ReceivedPerYear, 1)
	assert.NotEmpty(t, p.Disciplines)
	assert.NotEmpty(t, p.BudgetedPerMonth)
}

func TestOverview_OptionalSections(t *testing.T) {
	ds := types.NewDataset(types.ColContract, types.ColStatus)
	require.NoError(t, ds.AddText(types.ColContract, []string{lote1, lote1}))
	require.NoError(t, ds.AddText(types.ColStatus, []string{"RECEBIDO", "EXECUTADO"}))
	require.NoError(t, ds.AddDates(types.ColReceived, []sql.NullTime{on(7, 1), {}}))

	p, err := Overview(ds, cfg, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Received)
	assert.Equal(t, 1, p.DistinctOrders)
	assert.Nil(t, p.Disciplines)
	assert.Nil(t, p.Budget)

	statusOnly := types.NewDataset(types.ColContract, "STATUS")
	require.NoError(t, statusOnly.AddText("STATUS", []string{"RECEBIDO", "APROVADO", "RECEBIDO"}))
	p, err = Overview(statusOnly, cfg, july)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Received, "range ignored without a received date")
	assert.Nil(t, p.ReceivedPerDay)
	require.NotEmpty(t, p.Statuses)
	assert.Equal(t, "RECEBIDO", p.Statuses[0].Key)

	_, err = Overview(statusOnly, cfg, Query{Contract: lote1})
	assert.ErrorIs(t, err, types.ErrSchema, "contract filter needs the contract column")
}

func TestOverview_BudgetedPerFinalizedMonth(t *testing.T) {
	ds := types.NewDataset(types.ColContract, types.ColStatus)
	require.NoError(t, ds.AddText(types.ColStatus, []string{"EXECUTADO", "FINALIZADO", "RECEBIDO"}))
	require.NoError(t, ds.AddDates(types.ColFinalized, []sql.NullTime{on(7, 10), on(8, 12), {}}))
	require.NoError(t, ds.AddMoney(types.ColBudgetedValue, []decimal.NullDecimal{brl(100), brl(250), brl(40)}))

	p, err := Overview(ds, cfg, Query{})
	require.NoError(t, err)
	require.Len(t, p.BudgetedPerMonth, 2)
	assert.Equal(t, "2024-07", p.BudgetedPerMonth[0].Key)
	assert.True(t, decimal.NewFromInt(100).Equal(p.BudgetedPerMonth[0].Sum))
	assert.Equal(t, "2024-08", p.BudgetedPerMonth[1].Key)
	assert.True(t, decimal.NewFromInt(250).Equal(p.BudgetedPerMonth[1].Sum))

	budgetDateOnly := types.NewDataset(types.ColContract, types.ColStatus)
	require.NoError(t, budgetDateOnly.AddText(types.ColStatus, []string{"EXECUTADO"}))
	require.NoError(t, budgetDateOnly.AddDates(types.ColBudgeted, []sql.NullTime{on(7, 10)}))
	require.NoError(t, budgetDateOnly.AddMoney(types.ColBudgetedValue, []decimal.NullDecimal{brl(100)}))
	p, err = Overview(budgetDateOnly, cfg, Query{})
	require.NoError(t, err)
	assert.Nil(t, p.BudgetedPerMonth, "the budget date does not stand in for the finalization date")
}

func TestOverview_StoredSnapshotMatchesSheet(t *testing.T) {
	sheet := types.NewDataset(types.ColContract, "STATUS")
	require.NoError(t, sheet.AddText(types.ColContract, []string{lote1, lote1, lote2}))
	require.NoError(t, sheet.AddText("STATUS", []string{"RECEBIDO", "EXECUTADO", "EXECUTADO"}))
	require.NoError(t, sheet.AddText(types.ColDiscipline, []string{"CIVIL", "ELÉTRICA", "CIVIL"}))
	require.NoError(t, sheet.AddText("DATA EXECUÇÃO (INÍCIO)", []string{"01/07/2024", "", "02/07/2024"}))

	live, err := Overview(sheet, cfg, july)
	require.NoError(t, err)
	require.Equal(t, 3, live.Received)
	require.Equal(t, 1, live.Classification.Open)
	require.Equal(t, 2, live.Classification.Closed)

	stored, err := types.FromRecords(types.ToRecords(sheet, "sop"), types.StoredColumns(sheet))
	require.NoError(t, err)
	got, err := Overview(stored, cfg, july)
	require.NoError(t, err)

	assert.Equal(t, live.Received, got.Received)
	assert.Equal(t, live.Statuses, got.Statuses)
	assert.Equal(t, live.Classification, got.Classification)
	assert.Equal(t, live.Completion, got.Completion)
	assert.Equal(t, live.Disciplines, got.Disciplines)
	assert.Nil(t, got.ReceivedPerDay)
	assert.Nil(t, got.Budget)
}

func TestBuild(t *testing.T) {
	k, err := ParseKind("weekly")
	require.NoError(t, err)
	p, err := Build(k, orders(t), cfg, july)
	require.NoError(t, err)
	assert.IsType(t, WeeklyPanel{}, p)

	_, err = ParseKind("mensal")
	assert.Error(t, err)

	_, err = Build(DailyKind, types.NewDataset(types.ColContract, types.ColStatus), cfg, july)
	assert.ErrorIs(t, err, types.ErrSchema)
}
