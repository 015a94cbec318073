package generate

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"txetl/internal/records"
	"txetl/internal/schema"
)

// parquetChunkSize bounds the Arrow record size handed to the Parquet writer.
const parquetChunkSize = 64 * 1024

// writeParquet encodes tbl as a Snappy-compressed Parquet file. The Arrow
// schema is inferred per column from the first non-nil cell; timestamps are
// stored as strings in the shared wire layout, matching the text encodings.
func writeParquet(w io.Writer, tbl *records.Table) error {
	sch, err := arrowSchema(tbl)
	if err != nil {
		return err
	}

	b := array.NewRecordBuilder(memory.DefaultAllocator, sch)
	defer b.Release()

	for _, rec := range tbl.Rows {
		for i, col := range tbl.Columns {
			if err := appendCell(b.Field(i), rec[col]); err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
		}
	}

	record := b.NewRecord()
	defer record.Release()

	atbl := array.NewTableFromRecords(sch, []arrow.Record{record})
	defer atbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// WriteTable closes its sink when it implements io.Closer; the caller owns
	// w's lifecycle, so hand it a writer-only view.
	return pqarrow.WriteTable(atbl, struct{ io.Writer }{w}, parquetChunkSize, props, pqarrow.DefaultWriterProps())
}

// arrowSchema infers the Arrow field types from the table's first row with a
// value in each column. Columns with no values default to strings.
func arrowSchema(tbl *records.Table) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(tbl.Columns))
	for i, col := range tbl.Columns {
		var dt arrow.DataType = arrow.BinaryTypes.String
		for _, rec := range tbl.Rows {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}
			switch v.(type) {
			case string, time.Time:
				dt = arrow.BinaryTypes.String
			case int64, int:
				dt = arrow.PrimitiveTypes.Int64
			case float64:
				dt = arrow.PrimitiveTypes.Float64
			case bool:
				dt = arrow.FixedWidthTypes.Boolean
			default:
				return nil, fmt.Errorf("column %s: unsupported value type %T", col, v)
			}
			break
		}
		fields[i] = arrow.Field{Name: col, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// appendCell appends v to the column builder, converting to the builder's
// type where the conversion is lossless.
func appendCell(fb array.Builder, v any) error {
	if v == nil {
		fb.AppendNull()
		return nil
	}
	switch b := fb.(type) {
	case *array.StringBuilder:
		switch t := v.(type) {
		case string:
			b.Append(t)
		case time.Time:
			b.Append(t.Format(schema.Layout))
		default:
			b.Append(fmt.Sprint(t))
		}
	case *array.Int64Builder:
		switch t := v.(type) {
		case int64:
			b.Append(t)
		case int:
			b.Append(int64(t))
		case float64:
			b.Append(int64(t))
		default:
			return fmt.Errorf("cannot store %T as int64", v)
		}
	case *array.Float64Builder:
		switch t := v.(type) {
		case float64:
			b.Append(t)
		case int64:
			b.Append(float64(t))
		case int:
			b.Append(float64(t))
		default:
			return fmt.Errorf("cannot store %T as float64", v)
		}
	case *array.BooleanBuilder:
		t, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot store %T as bool", v)
		}
		b.Append(t)
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}
