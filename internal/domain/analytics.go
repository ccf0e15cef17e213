package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MonthsOfSales is the number of trailing calendar months the dashboard charts.
const MonthsOfSales = 12

const monthLayout = "2006-01"

type MonthlySales struct {
	Month   string          `json:"month"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardAnalytics is the admin overview. Errors maps a section name to
// the reason it could not be computed; sections that failed keep their zero
// value.
type DashboardAnalytics struct {
	TotalProducts int               `json:"total_products"`
	TotalOrders   int               `json:"total_orders"`
	TotalUsers    int               `json:"total_users"`
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	RecentOrders  []Order           `json:"recent_orders"`
	TopProducts   []Product         `json:"top_products"`
	MonthlySales  []MonthlySales    `json:"monthly_sales"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// Metric compares the current calendar month with the previous one.
type Metric struct {
	Total    float64 `json:"total"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Growth   float64 `json:"growth"`
}

func NewMetric(total, current, previous float64) Metric {
	return Metric{
		Total:    total,
		Current:  current,
		Previous: previous,
		Growth:   GrowthPercentage(current, previous),
	}
}

type DashboardStats struct {
	Users    Metric `json:"users"`
	Products Metric `json:"products"`
	Orders   Metric `json:"orders"`
	Revenue  Metric `json:"revenue"`
}

// GrowthPercentage returns (current − previous) / previous × 100 rounded to
// two places, and exactly 0 when there is no previous baseline.
func GrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	g := (current - previous) / previous * 100
	return math.Round(g*100) / 100
}

// MonthStart truncates t to midnight on the first of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthWindows returns the start of the previous month, the current month
// and the next month relative to now.
func MonthWindows(now time.Time) (prev, cur, next time.Time) {
	cur = MonthStart(now)
	return cur.AddDate(0, -1, 0), cur, cur.AddDate(0, 1, 0)
}

// TrailingMonths lists n "YYYY-MM" keys ending with now's month, oldest first.
func TrailingMonths(now time.Time, n int) []string {
	start := MonthStart(now)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = start.AddDate(0, i-(n-1), 0).Format(monthLayout)
	}
	return keys
}

// BuildMonthlySales buckets orders into the trailing MonthsOfSales months.
// Every bucket is present; orders outside the window are ignored.
func BuildMonthlySales(orders []Order, now time.Time) []MonthlySales {
	keys := TrailingMonths(now, MonthsOfSales)
	buckets := make([]MonthlySales, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		buckets[i] = MonthlySales{Month: k, Revenue: decimal.Zero}
		index[k] = i
	}
	for _, o := range orders {
		i, ok := index[o.CreatedAt.In(now.Location()).Format(monthLayout)]
		if !ok {
			continue
		}
		buckets[i].Sales++
		buckets[i].Revenue = buckets[i].Revenue.Add(o.TotalAmount)
	}
	return buckets
}
