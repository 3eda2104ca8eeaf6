package service

import (
	"context"
	"testing"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

type stubReportJobStore struct {
	totals  repository.LockedTotals
	byStaff []repository.StaffTotals
	jobs    int64
	income  int64
}

func (s *stubReportJobStore) SumLockedRange(_ context.Context, _ int64, _, _ time.Time) (repository.LockedTotals, error) {
	return s.totals, nil
}

func (s *stubReportJobStore) StaffPerformanceRange(_ context.Context, _ int64, _, _ time.Time) ([]repository.StaffTotals, error) {
	return s.byStaff, nil
}

func (s *stubReportJobStore) DailySummary(_ context.Context, _ int64, _, _ time.Time) (int64, int64, error) {
	return s.jobs, s.income, nil
}

type stubExpenseSummer struct {
	sum int64
}

func (s *stubExpenseSummer) SumRange(_ context.Context, _ int64, _, _ time.Time) (int64, error) {
	return s.sum, nil
}

type stubShopDirectory struct {
	shops []domain.Shop
}

func (s *stubShopDirectory) ListAll(_ context.Context) ([]domain.Shop, error) {
	return s.shops, nil
}

type stubStaffDirectory struct {
	staff []domain.Staff
}

func (s *stubStaffDirectory) ListByShop(_ context.Context, _ int64) ([]domain.Staff, error) {
	return s.staff, nil
}

func TestPeriodRange(t *testing.T) {
	ref := time.Date(2026, time.March, 15, 13, 45, 0, 0, time.UTC)

	p := PeriodRange("daily", ref)
	if !p.From.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) || !p.To.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily window: %v – %v", p.From, p.To)
	}

	p = PeriodRange("monthly", ref)
	if !p.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || !p.To.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly window: %v – %v", p.From, p.To)
	}

	p = PeriodRange("yearly", ref)
	if !p.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || !p.To.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("yearly window: %v – %v", p.From, p.To)
	}

	p = PeriodRange("bogus", ref)
	if p.Kind != "monthly" {
		t.Fatalf("unknown kind resolved to %q, want monthly", p.Kind)
	}
}

func TestShopReportProfitFormula(t *testing.T) {
	svc := ReportService{
		Jobs:     &stubReportJobStore{totals: repository.LockedTotals{PartsCost: 30000, ServiceFee: 100000, Reserves: 5000, Jobs: 4}},
		Expenses: &stubExpenseSummer{sum: 20000},
		Logger:   testLogger(),
	}

	report, err := svc.ShopReport(context.Background(), 1, "monthly", time.Now())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalProfit != 100000-20000-5000 {
		t.Fatalf("profit = %d, want 75000", report.TotalProfit)
	}
	if report.TotalJobs != 4 || report.TotalPartsCost != 30000 || report.TotalExpense != 20000 {
		t.Fatalf("report: %+v", report)
	}
}

func TestStaffPerformanceJoinsRoster(t *testing.T) {
	svc := ReportService{
		Jobs: &stubReportJobStore{byStaff: []repository.StaffTotals{
			{StaffID: 1, Jobs: 2, Profit: 10000},
			{StaffID: 2, Jobs: 5, Profit: 40000},
			{StaffID: 99, Jobs: 1, Profit: 500},
		}},
		Staff: &stubStaffDirectory{staff: []domain.Staff{
			{ID: 1, Name: "Hla Hla", Role: domain.StaffTechnician},
			{ID: 2, Name: "Mg Mg", Role: domain.StaffTechnician},
		}},
		Logger: testLogger(),
	}

	rows, err := svc.StaffPerformance(context.Background(), 1, "monthly", time.Now())
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Name != "Mg Mg" || rows[0].Profit != 40000 {
		t.Fatalf("not sorted by profit: %+v", rows)
	}
	if rows[2].StaffID != 99 || rows[2].Name != "" {
		t.Fatalf("removed staff should keep id with empty name: %+v", rows[2])
	}
}

func TestPlatformStatsPriceFallbackChain(t *testing.T) {
	ref := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	inMonth := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)

	shops := []domain.Shop{
		{
			ID: 1, IsActive: true, SubscriptionExpire: time.Now().AddDate(0, 1, 0),
			PaymentHistory: []domain.PaymentRecord{
				// catalog price wins over the recorded one
				{PlanName: "Monthly", Price: 1, Date: inMonth},
				// no catalog entry: legacy constant
				{PlanName: "Yearly", Price: 1, Date: inMonth},
				// neither catalog nor legacy: recorded value survives
				{PlanName: "Custom", Price: 12345, Date: inMonth},
			},
		},
		{ID: 2, IsActive: false, SubscriptionExpire: time.Now().AddDate(0, 1, 0)},
		{ID: 3, IsActive: true, SubscriptionExpire: time.Now().AddDate(0, 0, -1)},
	}
	svc := ReportService{
		Shops:  &stubShopDirectory{shops: shops},
		Plans:  &stubPlanStore{plans: []domain.SubscriptionPlan{{ID: 2, Name: "Monthly", Price: 60000}}},
		Logger: testLogger(),
	}

	stats, err := svc.PlatformStats(context.Background(), ref)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := int64(60000 + 500000 + 12345)
	if stats.TotalRevenue != want {
		t.Fatalf("totalRevenue = %d, want %d", stats.TotalRevenue, want)
	}
	if stats.MonthlyRevenue != want || stats.YearlyRevenue != want {
		t.Fatalf("window revenue: monthly=%d yearly=%d", stats.MonthlyRevenue, stats.YearlyRevenue)
	}
	if stats.TotalShops != 3 || stats.ActiveSubscribers != 1 {
		t.Fatalf("shops=%d active=%d", stats.TotalShops, stats.ActiveSubscribers)
	}
	if len(stats.MonthlyTrend) != 6 {
		t.Fatalf("trend buckets = %d, want 6", len(stats.MonthlyTrend))
	}
	if last := stats.MonthlyTrend[5]; last.Month != "2026-06" || last.Revenue != want {
		t.Fatalf("trend tail: %+v", last)
	}
	if stats.PlanBreakdown[0].PlanName != "Yearly" {
		t.Fatalf("breakdown not sorted by revenue: %+v", stats.PlanBreakdown)
	}
}

func TestDailySummary(t *testing.T) {
	svc := ReportService{
		Jobs:   &stubReportJobStore{jobs: 7, income: 350000},
		Logger: testLogger(),
	}
	shop := &domain.Shop{ID: 4, ShopName: "Mobile King"}

	sum, err := svc.DailySummary(context.Background(), shop, time.Now())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalJobs != 7 || sum.Income != 350000 || sum.ShopName != "Mobile King" {
		t.Fatalf("summary: %+v", sum)
	}
}
