package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

// Prices billed for plans that predate the catalog. Kept for shops whose
// payment history references a plan with no catalog entry.
const (
	legacyMonthlyPrice int64 = 50000
	legacyYearlyPrice  int64 = 500000
)

// ShopStore is the persistence surface shared by the subscription ledger
// and the tenant registry.
type ShopStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
	Save(ctx context.Context, s *domain.Shop) error
}

type PlanStore interface {
	GetByID(ctx context.Context, id int64) (*domain.SubscriptionPlan, error)
	GetByName(ctx context.Context, name string) (*domain.SubscriptionPlan, error)
}

type VoucherStore interface {
	Create(ctx context.Context, v *domain.InvoiceVoucher) (*domain.InvoiceVoucher, error)
}

type SubscriptionService struct {
	Shops    ShopStore
	Plans    PlanStore
	Vouchers VoucherStore
	Currency string
	Logger   *slog.Logger
}

// PlanRef selects a plan by catalog id or by case-insensitive name.
type PlanRef struct {
	PlanID   *int64
	PlanName string
}

// resolvedPlan is a billing decision: what to charge, how long the period
// runs and what staff quota comes with it. MaxStaff 0 means "leave the
// shop's quota alone".
type resolvedPlan struct {
	Name     string
	Price    int64
	MaxStaff int
	EndFrom  func(anchor time.Time) time.Time
}

// Activate starts a fresh subscription on a shop: period from now, one
// payment entry and one CREATE voucher. Plans missing from the catalog
// fall back to the legacy trial/monthly/yearly table.
func (s SubscriptionService) Activate(ctx context.Context, shopID int64, ref PlanRef, staffOverride *int, actorID *int64) (*domain.Shop, error) {
	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}

	rp, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expire := rp.EndFrom(now)
	shop.SubscriptionStart = now
	shop.SubscriptionExpire = expire
	shop.SubscriptionPlan = rp.Name
	shop.SubscriptionClass = classForPlan(rp.Name)
	applyQuota(shop, rp, staffOverride)
	shop.PaymentHistory = append(shop.PaymentHistory, domain.PaymentRecord{
		PlanName: rp.Name, Price: rp.Price, Date: now,
	})

	if err := s.Shops.Save(ctx, shop); err != nil {
		return nil, err
	}
	if err := s.issueVoucher(ctx, shop, domain.VoucherCreate, rp, now, expire, actorID); err != nil {
		return nil, err
	}
	return shop, nil
}

// Extend pushes the expiry forward by one plan period. The new period is
// anchored at max(current expiry, now), so renewing early never loses paid
// days and renewing late never grants free ones. Unlike Activate, the plan
// must exist in the catalog.
func (s SubscriptionService) Extend(ctx context.Context, shopID int64, ref PlanRef, actorID *int64) (*domain.Shop, error) {
	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}

	plan, err := s.resolveCatalog(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	anchor := shop.SubscriptionExpire
	if now.After(anchor) {
		anchor = now
	}
	expire := anchor.AddDate(0, 0, plan.DurationDays)

	if len(shop.PaymentHistory) == 0 {
		shop.PaymentHistory = append(shop.PaymentHistory, s.backfillPayment(ctx, shop))
	}
	shop.PaymentHistory = append(shop.PaymentHistory, domain.PaymentRecord{
		PlanName: plan.Name, Price: plan.Price, Date: now,
	})
	shop.SubscriptionExpire = expire
	shop.SubscriptionPlan = plan.Name
	shop.SubscriptionClass = classForPlan(plan.Name)
	if plan.MaxStaffAllowed > 0 {
		shop.MaxStaffAllowed = plan.MaxStaffAllowed
	}

	if err := s.Shops.Save(ctx, shop); err != nil {
		return nil, err
	}
	rp := resolvedPlan{Name: plan.Name, Price: plan.Price, MaxStaff: plan.MaxStaffAllowed}
	if err := s.issueVoucher(ctx, shop, domain.VoucherExtend, rp, anchor, expire, actorID); err != nil {
		return nil, err
	}
	return shop, nil
}

func (s SubscriptionService) resolve(ctx context.Context, ref PlanRef) (resolvedPlan, error) {
	if ref.PlanID != nil {
		plan, err := s.Plans.GetByID(ctx, *ref.PlanID)
		if err == nil {
			return fromCatalog(plan), nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return resolvedPlan{}, err
		}
	}
	name := strings.TrimSpace(ref.PlanName)
	if name != "" {
		plan, err := s.Plans.GetByName(ctx, name)
		if err == nil {
			return fromCatalog(plan), nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return resolvedPlan{}, err
		}
	}
	return legacyPlan(name), nil
}

func (s SubscriptionService) resolveCatalog(ctx context.Context, ref PlanRef) (*domain.SubscriptionPlan, error) {
	if ref.PlanID != nil {
		plan, err := s.Plans.GetByID(ctx, *ref.PlanID)
		if err == nil {
			return plan, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if name := strings.TrimSpace(ref.PlanName); name != "" {
		plan, err := s.Plans.GetByName(ctx, name)
		if err == nil {
			return plan, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrPlanNotFound
}

// backfillPayment reconstructs the missing first payment of a shop billed
// before payment history existed, dated at the subscription start.
func (s SubscriptionService) backfillPayment(ctx context.Context, shop *domain.Shop) domain.PaymentRecord {
	date := shop.SubscriptionStart
	if date.IsZero() {
		date = shop.CreatedAt
	}
	price := legacyPrice(shop.SubscriptionPlan)
	if plan, err := s.Plans.GetByName(ctx, shop.SubscriptionPlan); err == nil && plan.Price > 0 {
		price = plan.Price
	}
	return domain.PaymentRecord{PlanName: shop.SubscriptionPlan, Price: price, Date: date}
}

func (s SubscriptionService) issueVoucher(ctx context.Context, shop *domain.Shop, vt domain.VoucherType, rp resolvedPlan, start, end time.Time, actorID *int64) error {
	maxStaffs := rp.MaxStaff
	if maxStaffs == 0 {
		maxStaffs = shop.MaxStaffAllowed
	}
	_, err := s.Vouchers.Create(ctx, &domain.InvoiceVoucher{
		VoucherNo:   newVoucherNo(),
		ShopID:      shop.ID,
		Type:        vt,
		PlanName:    rp.Name,
		MaxStaffs:   maxStaffs,
		Amount:      rp.Price,
		Currency:    s.Currency,
		PeriodStart: start,
		PeriodEnd:   end,
		IssuedAt:    time.Now(),
		CreatedBy:   actorID,
	})
	return err
}

func fromCatalog(p *domain.SubscriptionPlan) resolvedPlan {
	days := p.DurationDays
	return resolvedPlan{
		Name:     p.Name,
		Price:    p.Price,
		MaxStaff: p.MaxStaffAllowed,
		EndFrom:  func(anchor time.Time) time.Time { return anchor.AddDate(0, 0, days) },
	}
}

// legacyPlan covers plan names that predate the catalog. Unknown names get
// the trial terms.
func legacyPlan(name string) resolvedPlan {
	switch strings.ToLower(name) {
	case "monthly":
		return resolvedPlan{
			Name:    "Monthly",
			Price:   legacyMonthlyPrice,
			EndFrom: func(anchor time.Time) time.Time { return anchor.AddDate(0, 1, 0) },
		}
	case "yearly":
		return resolvedPlan{
			Name:    "Yearly",
			Price:   legacyYearlyPrice,
			EndFrom: func(anchor time.Time) time.Time { return anchor.AddDate(1, 0, 0) },
		}
	default:
		return resolvedPlan{
			Name:    "Trial",
			EndFrom: func(anchor time.Time) time.Time { return anchor.AddDate(0, 0, 7) },
		}
	}
}

func legacyPrice(planName string) int64 {
	switch strings.ToLower(strings.TrimSpace(planName)) {
	case "monthly":
		return legacyMonthlyPrice
	case "yearly":
		return legacyYearlyPrice
	default:
		return 0
	}
}

func classForPlan(name string) domain.SubscriptionClass {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yearly":
		return domain.ClassProMax
	case "monthly":
		return domain.ClassPro
	default:
		return domain.ClassBasic
	}
}

func applyQuota(shop *domain.Shop, rp resolvedPlan, override *int) {
	if override != nil && *override >= 1 {
		shop.MaxStaffAllowed = *override
		return
	}
	if rp.MaxStaff > 0 {
		shop.MaxStaffAllowed = rp.MaxStaff
	}
}

// newVoucherNo builds a time-based voucher number with a random suffix so
// two vouchers issued in the same instant cannot collide.
func newVoucherNo() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("INV-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("INV-%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf))
}
