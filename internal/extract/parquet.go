package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"txetl/internal/records"
)

// readParquet reads a whole Parquet file into a table. The file's own schema
// drives column names and order; supported physical types are string, int64,
// float64, and bool.
func readParquet(f *os.File) (*records.Table, error) {
	mem := memory.DefaultAllocator
	atbl, err := pqarrow.ReadTable(
		context.Background(),
		f,
		parquet.NewReaderProperties(mem),
		pqarrow.ArrowReadProperties{},
		mem,
	)
	if err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	defer atbl.Release()

	sch := atbl.Schema()
	columns := make([]string, sch.NumFields())
	for i := 0; i < sch.NumFields(); i++ {
		columns[i] = sch.Field(i).Name
	}

	tbl := records.NewTable(columns...)
	tbl.Rows = make([]records.Record, atbl.NumRows())
	for i := range tbl.Rows {
		tbl.Rows[i] = make(records.Record, len(columns))
	}

	for ci := 0; ci < int(atbl.NumCols()); ci++ {
		name := columns[ci]
		base := 0
		for _, chunk := range atbl.Column(ci).Data().Chunks() {
			if err := readChunk(tbl.Rows, base, name, chunk); err != nil {
				return nil, err
			}
			base += chunk.Len()
		}
	}
	return tbl, nil
}

// readChunk copies one Arrow array chunk into the row records starting at
// row index base.
func readChunk(rows []records.Record, base int, name string, chunk arrow.Array) error {
	switch a := chunk.(type) {
	case *array.String:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				rows[base+i][name] = a.Value(i)
			}
		}
	case *array.Int64:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				rows[base+i][name] = a.Value(i)
			}
		}
	case *array.Float64:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				rows[base+i][name] = a.Value(i)
			}
		}
	case *array.Boolean:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				rows[base+i][name] = a.Value(i)
			}
		}
	default:
		return fmt.Errorf("parquet: column %s has unsupported type %s", name, chunk.DataType())
	}
	return nil
}
