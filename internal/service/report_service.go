package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

// ReportJobStore is the aggregate surface of the job ledger.
type ReportJobStore interface {
	SumLockedRange(ctx context.Context, shopID int64, start, end time.Time) (repository.LockedTotals, error)
	StaffPerformanceRange(ctx context.Context, shopID int64, start, end time.Time) ([]repository.StaffTotals, error)
	DailySummary(ctx context.Context, shopID int64, start, end time.Time) (int64, int64, error)
}

type ReportExpenseStore interface {
	SumRange(ctx context.Context, shopID int64, start, end time.Time) (int64, error)
}

type ShopDirectory interface {
	ListAll(ctx context.Context) ([]domain.Shop, error)
}

type StaffDirectory interface {
	ListByShop(ctx context.Context, shopID int64) ([]domain.Staff, error)
}

type ReportService struct {
	Jobs     ReportJobStore
	Expenses ReportExpenseStore
	Shops    ShopDirectory
	Plans    PlanStore
	Staff    StaffDirectory
	Logger   *slog.Logger
}

// Period is a half-open [From, To) reporting window aligned to local
// midnight.
type Period struct {
	Kind string    `json:"period"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PeriodRange resolves a reporting window around ref. Unknown kinds fall
// back to monthly.
func PeriodRange(kind string, ref time.Time) Period {
	y, m, d := ref.Date()
	loc := ref.Location()
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "daily":
		from := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return Period{Kind: "daily", From: from, To: from.AddDate(0, 0, 1)}
	case "yearly":
		from := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Period{Kind: "yearly", From: from, To: from.AddDate(1, 0, 0)}
	default:
		from := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Period{Kind: "monthly", From: from, To: from.AddDate(0, 1, 0)}
	}
}

// ShopReport sums a shop's checked-out jobs and expenses for one period.
// Only locked jobs count: their financials are frozen, so the report is
// stable no matter how often it is rerun.
type ShopReport struct {
	Period          string    `json:"period"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalPartsCost  int64     `json:"totalPartsCost"`
	TotalServiceFee int64     `json:"totalServiceFee"`
	TotalReserves   int64     `json:"totalReserves"`
	TotalExpense    int64     `json:"totalExpense"`
	TotalProfit     int64     `json:"totalProfit"`
	TotalJobs       int64     `json:"totalJobs"`
}

func (s ReportService) ShopReport(ctx context.Context, shopID int64, kind string, ref time.Time) (*ShopReport, error) {
	p := PeriodRange(kind, ref)
	totals, err := s.Jobs.SumLockedRange(ctx, shopID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	expense, err := s.Expenses.SumRange(ctx, shopID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	return &ShopReport{
		Period:          p.Kind,
		From:            p.From,
		To:              p.To,
		TotalPartsCost:  totals.PartsCost,
		TotalServiceFee: totals.ServiceFee,
		TotalReserves:   totals.Reserves,
		TotalExpense:    expense,
		TotalProfit:     totals.ServiceFee - expense - totals.Reserves,
		TotalJobs:       totals.Jobs,
	}, nil
}

type StaffPerformanceRow struct {
	StaffID    int64  `json:"staffId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Jobs       int64  `json:"jobs"`
	Profit     int64  `json:"profit"`
	PartsCost  int64  `json:"partsCost"`
	ServiceFee int64  `json:"serviceFee"`
}

// StaffPerformance breaks the period's checked-out jobs down per assigned
// staff member, most profitable first. Staff removed from the roster still
// appear by id.
func (s ReportService) StaffPerformance(ctx context.Context, shopID int64, kind string, ref time.Time) ([]StaffPerformanceRow, error) {
	p := PeriodRange(kind, ref)
	totals, err := s.Jobs.StaffPerformanceRange(ctx, shopID, p.From, p.To)
	if err != nil {
		return nil, err
	}

	roster, err := s.Staff.ListByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]domain.Staff, len(roster))
	for _, st := range roster {
		names[st.ID] = st
	}

	rows := make([]StaffPerformanceRow, 0, len(totals))
	for _, t := range totals {
		row := StaffPerformanceRow{
			StaffID:    t.StaffID,
			Jobs:       t.Jobs,
			Profit:     t.Profit,
			PartsCost:  t.PartsCost,
			ServiceFee: t.ServiceFee,
		}
		if st, ok := names[t.StaffID]; ok {
			row.Name = st.Name
			row.Role = string(st.Role)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Profit > rows[j].Profit })
	return rows, nil
}

type MonthRevenue struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
}

type PlanShare struct {
	PlanName string  `json:"planName"`
	Revenue  int64   `json:"revenue"`
	Percent  float64 `json:"percent"`
}

type PlatformStats struct {
	TotalShops        int            `json:"totalShops"`
	ActiveSubscribers int            `json:"activeSubscribers"`
	MonthlyRevenue    int64          `json:"monthlyRevenue"`
	YearlyRevenue     int64          `json:"yearlyRevenue"`
	TotalRevenue      int64          `json:"totalRevenue"`
	MonthlyTrend      []MonthRevenue `json:"monthlyTrend"`
	PlanBreakdown     []PlanShare    `json:"planBreakdown"`
}

// PlatformStats aggregates subscription revenue across all shops. Each
// payment is priced through a fallback chain: current catalog price when
// positive, then the legacy constants, then whatever the history entry
// recorded.
func (s ReportService) PlatformStats(ctx context.Context, ref time.Time) (*PlatformStats, error) {
	shops, err := s.Shops.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	month := PeriodRange("monthly", ref)
	year := PeriodRange("yearly", ref)
	trendStart := month.From.AddDate(0, -5, 0)

	stats := &PlatformStats{TotalShops: len(shops)}
	trend := make(map[string]int64, 6)
	byPlan := make(map[string]int64)
	prices := make(map[string]int64)
	now := time.Now()

	for i := range shops {
		shop := &shops[i]
		if shop.IsSubscriptionActive(now) {
			stats.ActiveSubscribers++
		}
		for _, rec := range shop.PaymentHistory {
			price := s.paymentPrice(ctx, prices, rec)
			stats.TotalRevenue += price
			byPlan[rec.PlanName] += price
			if !rec.Date.Before(month.From) && rec.Date.Before(month.To) {
				stats.MonthlyRevenue += price
			}
			if !rec.Date.Before(year.From) && rec.Date.Before(year.To) {
				stats.YearlyRevenue += price
			}
			if !rec.Date.Before(trendStart) && rec.Date.Before(month.To) {
				trend[rec.Date.Format("2006-01")] += price
			}
		}
	}

	for i := 0; i < 6; i++ {
		key := trendStart.AddDate(0, i, 0).Format("2006-01")
		stats.MonthlyTrend = append(stats.MonthlyTrend, MonthRevenue{Month: key, Revenue: trend[key]})
	}

	for name, revenue := range byPlan {
		share := PlanShare{PlanName: name, Revenue: revenue}
		if stats.TotalRevenue > 0 {
			share.Percent = float64(revenue) / float64(stats.TotalRevenue) * 100
		}
		stats.PlanBreakdown = append(stats.PlanBreakdown, share)
	}
	sort.Slice(stats.PlanBreakdown, func(i, j int) bool {
		if stats.PlanBreakdown[i].Revenue != stats.PlanBreakdown[j].Revenue {
			return stats.PlanBreakdown[i].Revenue > stats.PlanBreakdown[j].Revenue
		}
		return stats.PlanBreakdown[i].PlanName < stats.PlanBreakdown[j].PlanName
	})
	return stats, nil
}

func (s ReportService) paymentPrice(ctx context.Context, cache map[string]int64, rec domain.PaymentRecord) int64 {
	key := strings.ToLower(strings.TrimSpace(rec.PlanName))
	if price, ok := cache[key]; ok {
		if price > 0 {
			return price
		}
	} else {
		var price int64
		if plan, err := s.Plans.GetByName(ctx, rec.PlanName); err == nil {
			price = plan.Price
		}
		cache[key] = price
		if price > 0 {
			return price
		}
	}
	if price := legacyPrice(rec.PlanName); price > 0 {
		return price
	}
	return rec.Price
}

type DailyShopSummary struct {
	ShopID    int64
	ShopName  string
	Date      time.Time
	TotalJobs int64
	Income    int64
}

// DailySummary reports how many jobs a shop opened today and their summed
// totals. Runs off created_at, so unfinished work still shows up.
func (s ReportService) DailySummary(ctx context.Context, shop *domain.Shop, ref time.Time) (*DailyShopSummary, error) {
	p := PeriodRange("daily", ref)
	jobs, income, err := s.Jobs.DailySummary(ctx, shop.ID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	return &DailyShopSummary{
		ShopID:    shop.ID,
		ShopName:  shop.ShopName,
		Date:      p.From,
		TotalJobs: jobs,
		Income:    income,
	}, nil
}
