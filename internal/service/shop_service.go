package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

// ShopRegistryStore is the full tenant persistence surface.
type ShopRegistryStore interface {
	ShopStore
	Create(ctx context.Context, s *domain.Shop) (*domain.Shop, error)
	ListAll(ctx context.Context) ([]domain.Shop, error)
	DeleteCascade(ctx context.Context, shopID int64) error
}

type UserRegistryStore interface {
	UserStore
	Create(ctx context.Context, p repository.CreateUserParams) (*domain.User, error)
	GetByShop(ctx context.Context, shopID int64) (*domain.User, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	ListAll(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
}

type StaffStore interface {
	Create(ctx context.Context, in repository.CreateStaffInput) (*domain.Staff, error)
	GetByID(ctx context.Context, id int64) (*domain.Staff, error)
	ListByShop(ctx context.Context, shopID int64) ([]domain.Staff, error)
	CountByShop(ctx context.Context, shopID int64) (int64, error)
	Save(ctx context.Context, st *domain.Staff) error
	Delete(ctx context.Context, id int64) error
}

type ExpenseStore interface {
	Create(ctx context.Context, in repository.CreateExpenseInput) (*domain.Expense, error)
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	ListByShop(ctx context.Context, shopID int64, limit int) ([]domain.Expense, error)
	ListRange(ctx context.Context, shopID int64, start, end time.Time) ([]domain.Expense, error)
	Delete(ctx context.Context, id int64) error
}

type SuggestionReader interface {
	List(ctx context.Context, kind domain.SuggestionKind, query string, limit int) ([]string, error)
}

type JobCounter interface {
	CountByShop(ctx context.Context, shopID int64) (int64, error)
}

type ShopService struct {
	Shops         ShopRegistryStore
	Users         UserRegistryStore
	Staff         StaffStore
	Expenses      ExpenseStore
	Suggestions   SuggestionReader
	Jobs          JobCounter
	Subscriptions SubscriptionService
	Logger        *slog.Logger
}

type CreateShopInput struct {
	ShopName         string
	OwnerName        string
	Phone            string
	Email            string
	Address          string
	Password         string
	PlanID           *int64
	PlanName         string
	MaxStaffOverride *int
	ActorID          *int64
}

// CreateShop registers a tenant: the shop record, its subscription period
// with the first payment and voucher, and the owner's login account.
func (s ShopService) CreateShop(ctx context.Context, in CreateShopInput) (*domain.Shop, *domain.User, error) {
	if strings.TrimSpace(in.ShopName) == "" {
		return nil, nil, validationf("shopName is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, nil, validationf("phone is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, nil, validationf("email is required")
	}
	if len(in.Password) < 6 {
		return nil, nil, validationf("password must be at least 6 characters")
	}

	now := time.Now()
	shop, err := s.Shops.Create(ctx, &domain.Shop{
		ShopName:           strings.TrimSpace(in.ShopName),
		OwnerName:          strings.TrimSpace(in.OwnerName),
		Phone:              strings.TrimSpace(in.Phone),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Address:            strings.TrimSpace(in.Address),
		IsActive:           true,
		SubscriptionStart:  now,
		SubscriptionExpire: now,
		SubscriptionClass:  domain.ClassBasic,
		MaxStaffAllowed:    1,
	})
	if err != nil {
		return nil, nil, err
	}

	shop, err = s.Subscriptions.Activate(ctx, shop.ID, PlanRef{PlanID: in.PlanID, PlanName: in.PlanName}, in.MaxStaffOverride, in.ActorID)
	if err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.Users.Create(ctx, repository.CreateUserParams{
		Email:        shop.Email,
		PasswordHash: hash,
		ShopID:       &shop.ID,
	})
	if err != nil {
		// The shop record stays; the account can be recreated by support.
		return nil, nil, err
	}
	return shop, user, nil
}

// UpdateShopInput is the super-admin edit surface; nil fields are left
// untouched.
type UpdateShopInput struct {
	ShopName           *string
	OwnerName          *string
	Phone              *string
	Email              *string
	Address            *string
	CustomRule         *string
	IsActive           *bool
	MaxStaffAllowed    *int
	SubscriptionExpire *time.Time
}

func (s ShopService) UpdateShop(ctx context.Context, shopID int64, in UpdateShopInput) (*domain.Shop, error) {
	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	previousEmail := shop.Email
	if in.ShopName != nil {
		shop.ShopName = strings.TrimSpace(*in.ShopName)
	}
	if in.OwnerName != nil {
		shop.OwnerName = strings.TrimSpace(*in.OwnerName)
	}
	if in.Phone != nil {
		shop.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		shop.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Address != nil {
		shop.Address = strings.TrimSpace(*in.Address)
	}
	if in.CustomRule != nil {
		shop.CustomRule = *in.CustomRule
	}
	if in.IsActive != nil {
		shop.IsActive = *in.IsActive
	}
	if in.MaxStaffAllowed != nil {
		if *in.MaxStaffAllowed < 1 {
			return nil, validationf("maxStaffAllowed must be at least 1")
		}
		shop.MaxStaffAllowed = *in.MaxStaffAllowed
	}
	if in.SubscriptionExpire != nil {
		shop.SubscriptionExpire = *in.SubscriptionExpire
	}
	if err := s.Shops.Save(ctx, shop); err != nil {
		return nil, err
	}
	if in.Email != nil && shop.Email != previousEmail {
		if err := s.syncOwnerEmail(ctx, shop.ID, shop.Email); err != nil {
			return nil, err
		}
	}
	return shop, nil
}

// syncOwnerEmail keeps the login account in step with the shop record so
// an email edit doesn't strand the owner on their old address.
func (s ShopService) syncOwnerEmail(ctx context.Context, shopID int64, email string) error {
	user, err := s.Users.GetByShop(ctx, shopID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Users.UpdateEmail(ctx, user.ID, email)
}

// UpdateProfileInput is the owner's self-service edit surface.
type UpdateProfileInput struct {
	ShopName   *string
	OwnerName  *string
	Phone      *string
	Address    *string
	CustomRule *string
}

func (s ShopService) UpdateProfile(ctx context.Context, shopID int64, in UpdateProfileInput) (*domain.Shop, error) {
	return s.UpdateShop(ctx, shopID, UpdateShopInput{
		ShopName:   in.ShopName,
		OwnerName:  in.OwnerName,
		Phone:      in.Phone,
		Address:    in.Address,
		CustomRule: in.CustomRule,
	})
}

// SetLogo stores the new logo reference and returns the previous one so
// the caller can remove the orphaned file.
func (s ShopService) SetLogo(ctx context.Context, shopID int64, logoURL string) (string, error) {
	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return "", err
	}
	var old string
	if shop.LogoURL != nil {
		old = *shop.LogoURL
	}
	shop.LogoURL = &logoURL
	if err := s.Shops.Save(ctx, shop); err != nil {
		return "", err
	}
	return old, nil
}

func (s ShopService) GetShop(ctx context.Context, shopID int64) (*domain.Shop, error) {
	return s.Shops.GetByID(ctx, shopID)
}

// DeleteShop removes the tenant and everything scoped to it.
func (s ShopService) DeleteShop(ctx context.Context, shopID int64) error {
	return s.Shops.DeleteCascade(ctx, shopID)
}

// ShopOverview is one row of the super-admin listing.
type ShopOverview struct {
	Shop     domain.Shop
	JobCount int64
}

func (s ShopService) ListShops(ctx context.Context) ([]ShopOverview, error) {
	shops, err := s.Shops.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]ShopOverview, 0, len(shops))
	for _, shop := range shops {
		count, err := s.Jobs.CountByShop(ctx, shop.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ShopOverview{Shop: shop, JobCount: count})
	}
	return rows, nil
}

func (s ShopService) ListUsers(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Users.ListAll(ctx, limit, (page-1)*limit)
}

type StaffInput struct {
	Name     string
	Role     domain.StaffRole
	Phone    string
	IsActive *bool
}

// CreateStaff adds a roster member. The quota only gates creation: a shop
// downgraded below its current headcount keeps its existing staff.
func (s ShopService) CreateStaff(ctx context.Context, shopID int64, in StaffInput) (*domain.Staff, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationf("name is required")
	}
	if in.Role == "" {
		in.Role = domain.StaffTechnician
	}
	if !domain.IsValidStaffRole(in.Role) {
		return nil, validationf("unknown staff role %q", in.Role)
	}

	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	count, err := s.Staff.CountByShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if count >= int64(shop.MaxStaffAllowed) {
		return nil, ErrStaffLimitReached
	}

	return s.Staff.Create(ctx, repository.CreateStaffInput{
		ShopID: shopID,
		Name:   strings.TrimSpace(in.Name),
		Role:   in.Role,
		Phone:  strings.TrimSpace(in.Phone),
	})
}

func (s ShopService) UpdateStaff(ctx context.Context, shopID, staffID int64, in StaffInput) (*domain.Staff, error) {
	st, err := s.Staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if st.ShopID != shopID {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(in.Name) != "" {
		st.Name = strings.TrimSpace(in.Name)
	}
	if in.Role != "" {
		if !domain.IsValidStaffRole(in.Role) {
			return nil, validationf("unknown staff role %q", in.Role)
		}
		st.Role = in.Role
	}
	if strings.TrimSpace(in.Phone) != "" {
		st.Phone = strings.TrimSpace(in.Phone)
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	if err := s.Staff.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s ShopService) DeleteStaff(ctx context.Context, shopID, staffID int64) error {
	st, err := s.Staff.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	if st.ShopID != shopID {
		return ErrForbidden
	}
	return s.Staff.Delete(ctx, staffID)
}

func (s ShopService) ListStaff(ctx context.Context, shopID int64) ([]domain.Staff, error) {
	return s.Staff.ListByShop(ctx, shopID)
}

type ExpenseInput struct {
	Title       string
	Amount      int64
	Note        string
	ExpenseDate time.Time
}

func (s ShopService) CreateExpense(ctx context.Context, shopID int64, in ExpenseInput) (*domain.Expense, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationf("title is required")
	}
	if in.Amount < 0 {
		return nil, validationf("amount must not be negative")
	}
	date := in.ExpenseDate
	if date.IsZero() {
		date = time.Now()
	}
	return s.Expenses.Create(ctx, repository.CreateExpenseInput{
		ShopID:      shopID,
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount,
		Note:        in.Note,
		ExpenseDate: date,
	})
}

func (s ShopService) ListExpenses(ctx context.Context, shopID int64, limit int) ([]domain.Expense, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.Expenses.ListByShop(ctx, shopID, limit)
}

func (s ShopService) ListExpensesRange(ctx context.Context, shopID int64, kind string, ref time.Time) ([]domain.Expense, Period, error) {
	p := PeriodRange(kind, ref)
	items, err := s.Expenses.ListRange(ctx, shopID, p.From, p.To)
	return items, p, err
}

func (s ShopService) DeleteExpense(ctx context.Context, shopID, expenseID int64) error {
	exp, err := s.Expenses.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if exp.ShopID != shopID {
		return ErrForbidden
	}
	return s.Expenses.Delete(ctx, expenseID)
}

// Suggest returns the most frequent values for an autocomplete field,
// optionally narrowed by a prefix.
func (s ShopService) Suggest(ctx context.Context, kind domain.SuggestionKind, query string) ([]string, error) {
	if !domain.IsValidSuggestionKind(kind) {
		return nil, validationf("unknown suggestion kind %q", kind)
	}
	return s.Suggestions.List(ctx, kind, strings.TrimSpace(query), 20)
}
