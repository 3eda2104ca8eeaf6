package domain

import "time"

// Enumerations
const (
	StaffTechnician StaffRole = "Technician"
	StaffAdmin      StaffRole = "Admin"
	StaffManager    StaffRole = "Manager"
	StaffHelper     StaffRole = "Helper"
	StaffOther      StaffRole = "Other"

	VoucherCreate VoucherType = "CREATE"
	VoucherExtend VoucherType = "EXTEND"

	SuggestionModel SuggestionKind = "model"
	SuggestionColor SuggestionKind = "color"
	SuggestionIssue SuggestionKind = "issue"

	ClassBasic  SubscriptionClass = "Basic"
	ClassPro    SubscriptionClass = "Pro"
	ClassProMax SubscriptionClass = "ProMax"
)

type StaffRole string
type VoucherType string
type SuggestionKind string
type SubscriptionClass string

// StaffRoles lists the accepted roster roles.
var StaffRoles = []StaffRole{StaffTechnician, StaffAdmin, StaffManager, StaffHelper, StaffOther}

func IsValidStaffRole(r StaffRole) bool {
	for _, v := range StaffRoles {
		if v == r {
			return true
		}
	}
	return false
}

func IsValidSuggestionKind(k SuggestionKind) bool {
	return k == SuggestionModel || k == SuggestionColor || k == SuggestionIssue
}

// Job is a single repair ticket. Timeline and StatusLogs are append-only;
// once Status is JobCheckedOut the financial fields are frozen.
type Job struct {
	ID              int64
	JobNo           string
	ShopID          int64
	CustomerName    string
	CustomerPhone   string
	DeviceModel     string
	IMEIOrSN        string
	Color           string
	Issue           string
	PartsCost       int64
	ServiceFee      int64
	Reserves        int64
	TotalAmount     int64
	FinalCost       int64
	Profit          int64
	CheckoutDate    *time.Time
	IsLocked        bool
	Status          JobStatus
	Timeline        []TimelineEntry
	StatusLogs      []StatusLogEntry
	CustomerChatID  *string
	AssignedStaffID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ComputeTotal derives totalAmount from the three cost inputs.
func (j *Job) ComputeTotal() {
	j.TotalAmount = j.PartsCost + j.ServiceFee - j.Reserves
}

type TimelineEntry struct {
	Status    JobStatus `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StatusLogEntry struct {
	FromStatus    JobStatus `json:"fromStatus,omitempty"`
	ToStatus      JobStatus `json:"toStatus"`
	UpdatedAt     time.Time `json:"updatedAt"`
	UpdatedBy     *int64    `json:"updatedBy,omitempty"`
	UpdatedByName string    `json:"updatedByName"`
	Source        string    `json:"source"`
}

// PaymentRecord is one append-only billing entry in a shop's history.
type PaymentRecord struct {
	PlanName string    `json:"planName"`
	Price    int64     `json:"price"`
	Date     time.Time `json:"date"`
}

// Shop is the tenant root; every other entity is scoped to one shop.
type Shop struct {
	ID                 int64
	ShopName           string
	OwnerName          string
	Phone              string
	Email              string
	Address            string
	SecurityPinHash    *string
	LogoURL            *string
	CustomRule         string
	IsActive           bool
	SubscriptionStart  time.Time
	SubscriptionExpire time.Time
	SubscriptionPlan   string
	SubscriptionClass  SubscriptionClass
	MaxStaffAllowed    int
	PaymentHistory     []PaymentRecord
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsSubscriptionActive reports whether the shop may log in.
func (s *Shop) IsSubscriptionActive(now time.Time) bool {
	return s.IsActive && now.Before(s.SubscriptionExpire)
}

// SubscriptionPlan is a catalog entry. Historical payments snapshot its
// price at billing time, so later edits never rewrite history.
type SubscriptionPlan struct {
	ID              int64
	Name            string
	Description     string
	Price           int64
	Currency        string
	DurationDays    int
	MaxStaffAllowed int
	Features        []string
	IsActive        bool
	IsPopular       bool
	SortOrder       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InvoiceVoucher is an immutable receipt of a single billing event.
type InvoiceVoucher struct {
	ID          int64
	VoucherNo   string
	ShopID      int64
	Type        VoucherType
	PlanName    string
	MaxStaffs   int
	Amount      int64
	Currency    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	IssuedAt    time.Time
	CreatedBy   *int64
	Notes       string
}

type Expense struct {
	ID          int64
	ShopID      int64
	Title       string
	Amount      int64
	Note        string
	ExpenseDate time.Time
	CreatedAt   time.Time
}

type Staff struct {
	ID        int64
	ShopID    int64
	Name      string
	Role      StaffRole
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsSuperAdmin bool
	ShopID       *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Suggestion struct {
	ID        int64
	Kind      SuggestionKind
	Value     string
	Frequency int64
}

// OwnerToken links a shop owner to a Telegram chat for daily reports.
type OwnerToken struct {
	ID             int64
	Token          string
	ShopID         int64
	ExpiresAt      time.Time
	TelegramChatID *string
	CreatedAt      time.Time
}
