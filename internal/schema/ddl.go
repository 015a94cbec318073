package schema

import (
	"fmt"
	"strings"
)

// Kind is a backend-agnostic column type. Each storage backend maps kinds to
// its own SQL types through a TypeMap.
type Kind string

const (
	KindText      Kind = "text"
	KindInteger   Kind = "integer"
	KindReal      Kind = "real"
	KindTimestamp Kind = "timestamp"
	KindBool      Kind = "bool"
)

// ColumnDef describes one column of a target table.
type ColumnDef struct {
	Name    string
	Kind    Kind
	NotNull bool
	Unique  bool
}

// TableDef describes a target table: its name and ordered columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns the table's column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Transactions returns the definition of the main table. It carries every
// original transaction field plus the derived columns; transaction_id is the
// unique business key.
func Transactions() TableDef {
	return TableDef{
		Name: "transactions",
		Columns: []ColumnDef{
			{Name: ColTransactionID, Kind: KindText, NotNull: true, Unique: true},
			{Name: ColCustomerID, Kind: KindText, NotNull: true},
			{Name: ColProductName, Kind: KindText, NotNull: true},
			{Name: ColCategory, Kind: KindText, NotNull: true},
			{Name: ColQuantity, Kind: KindInteger, NotNull: true},
			{Name: ColUnitPrice, Kind: KindReal, NotNull: true},
			{Name: ColTotalAmount, Kind: KindReal, NotNull: true},
			{Name: ColDiscountPercent, Kind: KindInteger, NotNull: true},
			{Name: ColTaxRate, Kind: KindReal, NotNull: true},
			{Name: ColPaymentMethod, Kind: KindText, NotNull: true},
			{Name: ColStatus, Kind: KindText, NotNull: true},
			{Name: ColTransactionDate, Kind: KindTimestamp, NotNull: true},
			{Name: ColShippingCountry, Kind: KindText, NotNull: true},
			{Name: ColCustomerEmail, Kind: KindText, NotNull: true},
			{Name: ColYear, Kind: KindInteger, NotNull: true},
			{Name: ColMonth, Kind: KindInteger, NotNull: true},
			{Name: ColDayOfWeek, Kind: KindText, NotNull: true},
			{Name: ColIsWeekend, Kind: KindBool, NotNull: true},
			{Name: ColCustomerSegment, Kind: KindText, NotNull: true},
			{Name: ColEstimatedProfit, Kind: KindReal, NotNull: true},
		},
	}
}

// TransactionSummary returns the definition of the per-category summary
// table. One row per category per load; no uniqueness constraint.
func TransactionSummary() TableDef {
	return TableDef{
		Name: "transaction_summary",
		Columns: []ColumnDef{
			{Name: ColCategory, Kind: KindText, NotNull: true},
			{Name: ColTotalTransactions, Kind: KindInteger, NotNull: true},
			{Name: ColTotalRevenue, Kind: KindReal, NotNull: true},
			{Name: ColAvgOrderValue, Kind: KindReal, NotNull: true},
			{Name: ColTotalQuantity, Kind: KindInteger, NotNull: true},
		},
	}
}

// TypeMap adapts the backend-agnostic column kinds to one SQL dialect.
type TypeMap struct {
	// SQLType maps a kind to the dialect's type name. KeyText, when non-empty,
	// overrides the text type for unique columns (MySQL needs a bounded
	// VARCHAR to index a key).
	SQLType map[Kind]string
	KeyText string

	// QuoteIdent quotes a single identifier for the dialect.
	QuoteIdent func(string) string
}

// BuildCreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for def
// in the dialect described by m. Columns render as
//
//	<name> <type> [NOT NULL] [UNIQUE]
//
// in definition order.
func BuildCreateTableSQL(def TableDef, m TypeMap) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", def.Name)
	}

	cols := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		typ := m.SQLType[c.Kind]
		if c.Unique && c.Kind == KindText && m.KeyText != "" {
			typ = m.KeyText
		}
		if typ == "" {
			return "", fmt.Errorf("ddl: no SQL type for kind %q (column %s)", c.Kind, c.Name)
		}

		var sb strings.Builder
		sb.WriteString(m.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.Unique {
			sb.WriteString(" UNIQUE")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		m.QuoteIdent(def.Name),
		strings.Join(cols, ",\n  "),
	), nil
}
