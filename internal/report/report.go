// Package report aggregates shipments and expenses into profit-and-loss,
// expense and dashboard views. Rows are grouped in Go so the same code runs
// on every database the stores support.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"transport-service/internal/apperr"
	"transport-service/internal/store"
	"transport-service/pkg/validation"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GroupBy is the bucket size of ByPeriod
type GroupBy string

const (
	GroupByMonth   GroupBy = "month"
	GroupByQuarter GroupBy = "quarter"
	GroupByYear    GroupBy = "year"
)

// Params selects the reporting window. Both days are inclusive.
type Params struct {
	StartDate time.Time
	EndDate   time.Time
	GroupBy   GroupBy
}

// ParseParams reads the query values, defaulting to Jan 1 of the current year
// through today grouped by month
func ParseParams(startDate, endDate, groupBy string, now time.Time) (Params, error) {
	today := validation.StartOfDay(now.UTC())
	p := Params{
		StartDate: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   today,
		GroupBy:   GroupByMonth,
	}

	if startDate != "" {
		t, err := validation.ParseDate(startDate)
		if err != nil {
			return p, apperr.Validation("startDate", "startDate must be a date in YYYY-MM-DD format")
		}
		p.StartDate = validation.StartOfDay(t)
	}
	if endDate != "" {
		t, err := validation.ParseDate(endDate)
		if err != nil {
			return p, apperr.Validation("endDate", "endDate must be a date in YYYY-MM-DD format")
		}
		p.EndDate = validation.StartOfDay(t)
	}
	if p.EndDate.Before(p.StartDate) {
		return p, apperr.Validation("endDate", "endDate must not be before startDate")
	}

	switch GroupBy(strings.ToLower(groupBy)) {
	case "":
	case GroupByMonth, GroupByQuarter, GroupByYear:
		p.GroupBy = GroupBy(strings.ToLower(groupBy))
	default:
		return p, apperr.Validation("groupBy", "groupBy must be one of: month quarter year")
	}
	return p, nil
}

func (p Params) dateRange() store.DateRange {
	return store.DateRange{From: p.StartDate, To: p.EndDate}
}

// PeriodKey names the bucket t falls in: 2024-03, 2024-Q1 or 2024
func PeriodKey(t time.Time, g GroupBy) string {
	switch g {
	case GroupByYear:
		return fmt.Sprintf("%04d", t.Year())
	case GroupByQuarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	}
}

// RevenueSource supplies shipment rows
type RevenueSource interface {
	RevenueRows(ctx context.Context, tenantID uint, r store.DateRange) ([]store.RevenueRow, error)
}

// ExpenseSource supplies expense rows
type ExpenseSource interface {
	Rows(ctx context.Context, tenantID uint, r store.DateRange) ([]store.ExpenseRow, error)
}

// PeriodTotals is one ByPeriod bucket of the profit-and-loss report
type PeriodTotals struct {
	Period    string  `json:"period"`
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	NetProfit float64 `json:"netProfit"`
}

// ProfitLoss is the profit-and-loss report
type ProfitLoss struct {
	StartDate       string             `json:"startDate"`
	EndDate         string             `json:"endDate"`
	GroupBy         GroupBy            `json:"groupBy"`
	TotalRevenue    float64            `json:"totalRevenue"`
	TotalExpenses   float64            `json:"totalExpenses"`
	NetProfit       float64            `json:"netProfit"`
	ProfitMargin    float64            `json:"profitMargin"`
	ShipmentCount   int                `json:"shipmentCount"`
	ExpenseCount    int                `json:"expenseCount"`
	ByCategory      map[string]float64 `json:"byCategory"`
	RevenueByStatus map[string]float64 `json:"revenueByStatus"`
	ByPeriod        []PeriodTotals     `json:"byPeriod"`
}

// PeriodAmount is one ByPeriod bucket of the expense report
type PeriodAmount struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}

// ExpenseReport is the expense portion of the profit-and-loss report
type ExpenseReport struct {
	StartDate     string             `json:"startDate"`
	EndDate       string             `json:"endDate"`
	GroupBy       GroupBy            `json:"groupBy"`
	TotalExpenses float64            `json:"totalExpenses"`
	ExpenseCount  int                `json:"expenseCount"`
	ByCategory    map[string]float64 `json:"byCategory"`
	ByStatus      map[string]float64 `json:"byStatus"`
	ByPeriod      []PeriodAmount     `json:"byPeriod"`
}

// Service builds reports
type Service struct {
	revenue  RevenueSource
	expenses ExpenseSource
	stats    StatsSources
}

// NewService creates a report service
func NewService(revenue RevenueSource, expenses ExpenseSource, stats StatsSources) *Service {
	return &Service{revenue: revenue, expenses: expenses, stats: stats}
}

// ProfitLoss loads revenue and expenses concurrently and aggregates them
func (s *Service) ProfitLoss(ctx context.Context, tenantID uint, p Params) (*ProfitLoss, error) {
	var (
		revenueRows []store.RevenueRow
		expenseRows []store.ExpenseRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.revenue.RevenueRows(gctx, tenantID, p.dateRange())
		revenueRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.expenses.Rows(gctx, tenantID, p.dateRange())
		expenseRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildProfitLoss(p, revenueRows, expenseRows), nil
}

// Expenses aggregates the expense rows alone
func (s *Service) Expenses(ctx context.Context, tenantID uint, p Params) (*ExpenseReport, error) {
	rows, err := s.expenses.Rows(ctx, tenantID, p.dateRange())
	if err != nil {
		return nil, err
	}
	return buildExpenseReport(p, rows), nil
}

func buildProfitLoss(p Params, revenueRows []store.RevenueRow, expenseRows []store.ExpenseRow) *ProfitLoss {
	revenue := decimal.Zero
	expenses := decimal.Zero
	byStatus := map[string]decimal.Decimal{}
	byCategory := map[string]decimal.Decimal{}
	periodRevenue := map[string]decimal.Decimal{}
	periodExpenses := map[string]decimal.Decimal{}

	for _, r := range revenueRows {
		amount := decimal.NewFromFloat(r.GrandTotal)
		revenue = revenue.Add(amount)
		byStatus[string(r.Status)] = byStatus[string(r.Status)].Add(amount)
		key := PeriodKey(r.Date, p.GroupBy)
		periodRevenue[key] = periodRevenue[key].Add(amount)
	}
	for _, e := range expenseRows {
		amount := decimal.NewFromFloat(e.Amount)
		expenses = expenses.Add(amount)
		byCategory[string(e.Category)] = byCategory[string(e.Category)].Add(amount)
		key := PeriodKey(e.Date, p.GroupBy)
		periodExpenses[key] = periodExpenses[key].Add(amount)
	}

	net := revenue.Sub(expenses)
	report := &ProfitLoss{
		StartDate:       p.StartDate.Format(validation.DateLayout),
		EndDate:         p.EndDate.Format(validation.DateLayout),
		GroupBy:         p.GroupBy,
		TotalRevenue:    money(revenue),
		TotalExpenses:   money(expenses),
		NetProfit:       money(net),
		ProfitMargin:    margin(net, revenue),
		ShipmentCount:   len(revenueRows),
		ExpenseCount:    len(expenseRows),
		ByCategory:      moneyMap(byCategory),
		RevenueByStatus: moneyMap(byStatus),
		ByPeriod:        []PeriodTotals{},
	}

	for _, key := range sortedKeys(periodRevenue, periodExpenses) {
		rev := periodRevenue[key]
		exp := periodExpenses[key]
		report.ByPeriod = append(report.ByPeriod, PeriodTotals{
			Period:    key,
			Revenue:   money(rev),
			Expenses:  money(exp),
			NetProfit: money(rev.Sub(exp)),
		})
	}
	return report
}

func buildExpenseReport(p Params, rows []store.ExpenseRow) *ExpenseReport {
	total := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	byStatus := map[string]decimal.Decimal{}
	byPeriod := map[string]decimal.Decimal{}

	for _, e := range rows {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		byCategory[string(e.Category)] = byCategory[string(e.Category)].Add(amount)
		byStatus[string(e.Status)] = byStatus[string(e.Status)].Add(amount)
		key := PeriodKey(e.Date, p.GroupBy)
		byPeriod[key] = byPeriod[key].Add(amount)
	}

	report := &ExpenseReport{
		StartDate:     p.StartDate.Format(validation.DateLayout),
		EndDate:       p.EndDate.Format(validation.DateLayout),
		GroupBy:       p.GroupBy,
		TotalExpenses: money(total),
		ExpenseCount:  len(rows),
		ByCategory:    moneyMap(byCategory),
		ByStatus:      moneyMap(byStatus),
		ByPeriod:      []PeriodAmount{},
	}
	for _, key := range sortedKeys(byPeriod) {
		report.ByPeriod = append(report.ByPeriod, PeriodAmount{Period: key, Amount: money(byPeriod[key])})
	}
	return report
}

// margin is net/revenue as a percentage; 0 when there is no revenue
func margin(net, revenue decimal.Decimal) float64 {
	if revenue.IsZero() {
		return 0
	}
	return net.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func roundMoney(f float64) float64 {
	return money(decimal.NewFromFloat(f))
}

func moneyMap(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = money(v)
	}
	return out
}

// sortedKeys merges the key sets; period keys sort chronologically as strings
func sortedKeys(maps ...map[string]decimal.Decimal) []string {
	seen := map[string]struct{}{}
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
