// Package schema is the single source of truth for the transaction data
// model: column names and order, the fixed enumerations sampled by the
// generator, derived-column names added by the transformer, and the
// definitions of the two relational target tables.
package schema

import "time"

// Layout is the wire format for transaction_date in all file encodings.
const Layout = "2006-01-02 15:04:05"

// TaxRate is the flat tax applied to every generated transaction.
const TaxRate = 0.08

// WindowDays is the size of the generation window for transaction_date.
const WindowDays = 700

// WindowStart returns the first instant of the generation window.
func WindowStart() time.Time {
	return time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
}

// Original transaction columns, in canonical order.
const (
	ColTransactionID   = "transaction_id"
	ColCustomerID      = "customer_id"
	ColProductName     = "product_name"
	ColCategory        = "category"
	ColQuantity        = "quantity"
	ColUnitPrice       = "unit_price"
	ColTotalAmount     = "total_amount"
	ColDiscountPercent = "discount_percent"
	ColTaxRate         = "tax_rate"
	ColPaymentMethod   = "payment_method"
	ColStatus          = "status"
	ColTransactionDate = "transaction_date"
	ColShippingCountry = "shipping_country"
	ColCustomerEmail   = "customer_email"
)

// Derived columns appended by the transformer.
const (
	ColYear            = "year"
	ColMonth           = "month"
	ColDayOfWeek       = "day_of_week"
	ColIsWeekend       = "is_weekend"
	ColCustomerSegment = "customer_segment"
	ColEstimatedProfit = "estimated_profit"
)

// Summary columns produced by the aggregator.
const (
	ColTotalTransactions = "total_transactions"
	ColTotalRevenue      = "total_revenue"
	ColAvgOrderValue     = "avg_order_value"
	ColTotalQuantity     = "total_quantity"
)

// TransactionColumns is the canonical column order shared by all three file
// encodings.
var TransactionColumns = []string{
	ColTransactionID,
	ColCustomerID,
	ColProductName,
	ColCategory,
	ColQuantity,
	ColUnitPrice,
	ColTotalAmount,
	ColDiscountPercent,
	ColTaxRate,
	ColPaymentMethod,
	ColStatus,
	ColTransactionDate,
	ColShippingCountry,
	ColCustomerEmail,
}

// EnrichedColumns extends TransactionColumns with the derived columns, in the
// order the transformer appends them.
var EnrichedColumns = append(append([]string{}, TransactionColumns...),
	ColYear,
	ColMonth,
	ColDayOfWeek,
	ColIsWeekend,
	ColCustomerSegment,
	ColEstimatedProfit,
)

// Fixed enumerations sampled by the generator.
var (
	Categories     = []string{"Electronics", "Clothing", "Books", "Home & Garden", "Sports", "Toys"}
	Statuses       = []string{"completed", "pending", "cancelled", "refunded"}
	PaymentMethods = []string{"credit_card", "debit_card", "paypal", "crypto"}
	Countries      = []string{"USA", "Canada", "UK", "Germany", "France", "Australia"}
	Discounts      = []int64{0, 5, 10, 15, 20}
)

// Customer segment labels assigned by the transformer.
const (
	SegmentLow    = "low_value"
	SegmentMedium = "medium_value"
	SegmentHigh   = "high_value"
)

// Segment buckets total into (0,50] low, (50,200] medium, (200,inf) high.
// Boundary values fall into the lower bucket.
func Segment(total float64) string {
	switch {
	case total <= 50:
		return SegmentLow
	case total <= 200:
		return SegmentMedium
	default:
		return SegmentHigh
	}
}
