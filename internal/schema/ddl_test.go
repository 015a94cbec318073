package schema

import (
	"strings"
	"testing"
)

func testTypeMap() TypeMap {
	return TypeMap{
		SQLType: map[Kind]string{
			KindText:      "TEXT",
			KindInteger:   "BIGINT",
			KindReal:      "DOUBLE PRECISION",
			KindTimestamp: "TIMESTAMP",
			KindBool:      "BOOLEAN",
		},
		QuoteIdent: func(id string) string { return `"` + id + `"` },
	}
}

// TestBuildCreateTableSQL verifies statement rendering and the error paths
// for malformed definitions.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		m           TypeMap
		wantSQL     string
		wantErr     string
	}{
		{
			name:    "empty table name",
			def:     TableDef{Columns: []ColumnDef{{Name: "id", Kind: KindText}}},
			m:       testTypeMap(),
			wantErr: "table name must not be empty",
		},
		{
			name:    "no columns",
			def:     TableDef{Name: "t"},
			m:       testTypeMap(),
			wantErr: "has no columns",
		},
		{
			name: "unknown kind",
			def: TableDef{
				Name:    "t",
				Columns: []ColumnDef{{Name: "id", Kind: Kind("blob")}},
			},
			m:       testTypeMap(),
			wantErr: "no SQL type",
		},
		{
			name: "full definition",
			def: TableDef{
				Name: "events",
				Columns: []ColumnDef{
					{Name: "id", Kind: KindText, NotNull: true, Unique: true},
					{Name: "amount", Kind: KindReal, NotNull: true},
					{Name: "note", Kind: KindText},
				},
			},
			m: testTypeMap(),
			wantSQL: `CREATE TABLE IF NOT EXISTS "events" (
  "id" TEXT NOT NULL UNIQUE,
  "amount" DOUBLE PRECISION NOT NULL,
  "note" TEXT
);`,
		},
		{
			name: "key text override applies to unique text column only",
			def: TableDef{
				Name: "t",
				Columns: []ColumnDef{
					{Name: "id", Kind: KindText, Unique: true},
					{Name: "name", Kind: KindText},
				},
			},
			m: func() TypeMap {
				m := testTypeMap()
				m.KeyText = "VARCHAR(64)"
				return m
			}(),
			wantSQL: `CREATE TABLE IF NOT EXISTS "t" (
  "id" VARCHAR(64) UNIQUE,
  "name" TEXT
);`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def, tt.m)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("SQL mismatch:\ngot:\n%s\nwant:\n%s", got, tt.wantSQL)
			}
		})
	}
}

// TestTableDefinitions pins the shape of the two target tables.
func TestTableDefinitions(t *testing.T) {
	t.Parallel()

	tx := Transactions()
	if tx.Name != "transactions" {
		t.Fatalf("name = %s", tx.Name)
	}
	if got, want := len(tx.Columns), len(EnrichedColumns); got != want {
		t.Fatalf("transactions has %d columns, want %d", got, want)
	}
	for i, col := range tx.Columns {
		if col.Name != EnrichedColumns[i] {
			t.Fatalf("column %d = %s, want %s", i, col.Name, EnrichedColumns[i])
		}
		if !col.NotNull {
			t.Fatalf("column %s is nullable", col.Name)
		}
	}
	if !tx.Columns[0].Unique || tx.Columns[0].Name != ColTransactionID {
		t.Fatal("transaction_id must be the unique key")
	}

	sum := TransactionSummary()
	want := []string{ColCategory, ColTotalTransactions, ColTotalRevenue, ColAvgOrderValue, ColTotalQuantity}
	got := sum.ColumnNames()
	if len(got) != len(want) {
		t.Fatalf("summary columns = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("summary column %d = %s, want %s", i, got[i], want[i])
		}
	}
	for _, col := range sum.Columns {
		if col.Unique {
			t.Fatalf("summary column %s must not be unique", col.Name)
		}
	}
}

// TestSegment pins the bucket boundaries: edges are closed on the right.
func TestSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total float64
		want  string
	}{
		{total: 0.01, want: SegmentLow},
		{total: 50.00, want: SegmentLow},
		{total: 50.01, want: SegmentMedium},
		{total: 200.00, want: SegmentMedium},
		{total: 200.01, want: SegmentHigh},
		{total: 5000, want: SegmentHigh},
	}

	for _, tt := range tests {
		if got := Segment(tt.total); got != tt.want {
			t.Errorf("Segment(%.2f) = %s, want %s", tt.total, got, tt.want)
		}
	}
}
