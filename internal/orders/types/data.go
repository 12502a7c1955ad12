package types

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Column names as they appear in the published sheets.
const (
	ColContract      = "CONTRATO"
	ColStatus        = "STATUS*"
	ColDiscipline    = "DISCIPLINAS"
	ColOrder         = "OS"
	ColBudgeter      = "ORÇAMENTISTA"
	ColPriority      = "NORMAL / URGENTE"
	ColTechnician    = "RESPONSAVEL TÉCNICO"
	ColReceived      = "DATA RECEBIDO"
	ColFinalized     = "DATA FINALIZADO"
	ColBudgeted      = "DATA ORÇADO"
	ColBudgetedValue = "VALOR ORÇADO"
	ColMaterialValue = "VALOR INSUMO"
	ColLaborValue    = "VALOR MÃO DE OBRA"
)

// AllContracts is the contract filter that matches every record.
const AllContracts = "Todos"

// MissingLabel is the bucket for records with an empty dimension value.
const MissingLabel = "NÃO INFORMADO"

type ColumnKind int

const (
	TextColumn ColumnKind = iota
	DateColumn
	MoneyColumn
)

var ColumnKindNames = map[ColumnKind]string{
	TextColumn:  "text",
	DateColumn:  "date",
	MoneyColumn: "money",
}

func (k ColumnKind) String() string {
	return ColumnKindNames[k]
}

// Record is one normalized service-order row, as stored in the service_orders table.
type Record struct {
	ID            int64               `db:"id"`
	Sheet         string              `db:"sheet"`
	RowNumber     int                 `db:"row_number"`
	ContractID    string              `db:"contract_id"`
	OrderCode     string              `db:"order_code"`
	Status        string              `db:"status"`
	Discipline    string              `db:"discipline"`
	Budgeter      string              `db:"budgeter"`
	Priority      string              `db:"priority"`
	Technician    string              `db:"technician"`
	ReceivedDate  sql.NullTime        `db:"received_date"`
	FinalizedDate sql.NullTime        `db:"finalized_date"`
	BudgetedDate  sql.NullTime        `db:"budgeted_date"`
	BudgetedValue decimal.NullDecimal `db:"budgeted_value"`
	MaterialValue decimal.NullDecimal `db:"material_value"`
	LaborValue    decimal.NullDecimal `db:"labor_value"`
	InsertedAt    time.Time           `db:"inserted_at"`
}
