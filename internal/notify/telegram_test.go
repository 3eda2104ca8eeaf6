package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errMissing = errors.New("not found")

type captureSender struct {
	sent []tgbotapi.MessageConfig
}

func (c *captureSender) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := msg.(tgbotapi.MessageConfig); ok {
		c.sent = append(c.sent, m)
	}
	return tgbotapi.Message{}, nil
}

type memJobStore struct {
	jobs map[int64]*domain.Job
}

func (s *memJobStore) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, errMissing
	}
	cp := *j
	return &cp, nil
}

func (s *memJobStore) SetCustomerChatID(_ context.Context, id int64, chatID string) error {
	s.jobs[id].CustomerChatID = &chatID
	return nil
}

type memOwnerStore struct {
	tokens map[string]*domain.OwnerToken
}

func (s *memOwnerStore) GetByToken(_ context.Context, token string) (*domain.OwnerToken, error) {
	t, ok := s.tokens[token]
	if !ok {
		return nil, errMissing
	}
	cp := *t
	return &cp, nil
}

func (s *memOwnerStore) SetChatID(_ context.Context, id int64, chatID string) error {
	for _, t := range s.tokens {
		if t.ID == id {
			t.TelegramChatID = &chatID
			return nil
		}
	}
	return errMissing
}

func (s *memOwnerStore) ListSubscribed(_ context.Context) ([]domain.OwnerToken, error) {
	var out []domain.OwnerToken
	for _, t := range s.tokens {
		if t.TelegramChatID != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

type memShopStore struct {
	shops map[int64]*domain.Shop
}

func (s *memShopStore) GetByID(_ context.Context, id int64) (*domain.Shop, error) {
	shop, ok := s.shops[id]
	if !ok {
		return nil, errMissing
	}
	cp := *shop
	return &cp, nil
}

type fixedSummary struct {
	sum service.DailyShopSummary
}

func (f *fixedSummary) DailySummary(_ context.Context, shop *domain.Shop, _ time.Time) (*service.DailyShopSummary, error) {
	cp := f.sum
	cp.ShopID = shop.ID
	cp.ShopName = shop.ShopName
	return &cp, nil
}

func testGateway(sender *captureSender, jobs *memJobStore, owners *memOwnerStore, shops *memShopStore) *Gateway {
	g := &Gateway{
		Bot:      sender,
		BotName:  "mobilepro_bot",
		Currency: "MMK",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if jobs != nil {
		g.Jobs = jobs
	}
	if owners != nil {
		g.Owners = owners
	}
	if shops != nil {
		g.Shops = shops
	}
	return g
}

func chattyJob(status domain.JobStatus) *domain.Job {
	chat := "555"
	return &domain.Job{
		ID: 1, JobNo: "#1700000000000", ShopID: 1,
		DeviceModel: "iPhone 12", Color: "Black", Issue: "Broken screen",
		PartsCost: 30000, ServiceFee: 50000, Reserves: 5000, TotalAmount: 75000,
		Status: status, CustomerChatID: &chat, CreatedAt: time.Now(),
	}
}

func TestNotifySkipsUnboundJob(t *testing.T) {
	sender := &captureSender{}
	g := testGateway(sender, nil, nil, nil)

	job := chattyJob(domain.JobComplete)
	job.CustomerChatID = nil
	if err := g.NotifyStatusChange(context.Background(), job); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("message sent for unbound job: %+v", sender.sent)
	}
}

func TestNotifyCompleteSendsReceipt(t *testing.T) {
	sender := &captureSender{}
	shops := &memShopStore{shops: map[int64]*domain.Shop{
		1: {ID: 1, ShopName: "Mobile King", CustomRule: "No refund after 7 days."},
	}}
	g := testGateway(sender, nil, nil, shops)

	if err := g.NotifyStatusChange(context.Background(), chattyJob(domain.JobComplete)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d messages", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 555 {
		t.Fatalf("chatID = %d", msg.ChatID)
	}
	for _, want := range []string{"Mobile King", "iPhone 12", "Total: 75000 MMK", "ready for pickup", "No refund after 7 days."} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("receipt missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestNotifyProgressSendsShortLine(t *testing.T) {
	sender := &captureSender{}
	g := testGateway(sender, nil, nil, nil)

	if err := g.NotifyStatusChange(context.Background(), chattyJob(domain.JobProgress)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	text := sender.sent[0].Text
	if !strings.Contains(text, "in progress") || strings.Contains(text, "Total:") {
		t.Fatalf("unexpected progress text: %s", text)
	}
}

func TestBindCustomerExpiredLink(t *testing.T) {
	sender := &captureSender{}
	old := chattyJob(domain.JobPending)
	old.CustomerChatID = nil
	old.CreatedAt = time.Now().Add(-31 * 24 * time.Hour)
	jobs := &memJobStore{jobs: map[int64]*domain.Job{1: old}}
	g := testGateway(sender, jobs, nil, nil)

	g.bindCustomer(context.Background(), 777, "1")

	if jobs.jobs[1].CustomerChatID != nil {
		t.Fatal("expired link must not bind the chat")
	}
	if !strings.Contains(sender.sent[0].Text, "expired") {
		t.Fatalf("reply: %s", sender.sent[0].Text)
	}
}

func TestBindCustomerRepliesWithReceipt(t *testing.T) {
	sender := &captureSender{}
	job := chattyJob(domain.JobPending)
	job.CustomerChatID = nil
	jobs := &memJobStore{jobs: map[int64]*domain.Job{1: job}}
	g := testGateway(sender, jobs, nil, nil)

	g.bindCustomer(context.Background(), 777, "1")

	if jobs.jobs[1].CustomerChatID == nil || *jobs.jobs[1].CustomerChatID != "777" {
		t.Fatalf("chat not bound: %+v", jobs.jobs[1].CustomerChatID)
	}
	if !strings.Contains(sender.sent[0].Text, "Total: 75000 MMK") {
		t.Fatalf("reply missing receipt: %s", sender.sent[0].Text)
	}
}

func TestBindOwnerExpiredToken(t *testing.T) {
	sender := &captureSender{}
	owners := &memOwnerStore{tokens: map[string]*domain.OwnerToken{
		"tok1": {ID: 1, Token: "tok1", ShopID: 1, ExpiresAt: time.Now().Add(-time.Hour)},
	}}
	g := testGateway(sender, nil, owners, nil)

	g.bindOwner(context.Background(), 888, "tok1")

	if owners.tokens["tok1"].TelegramChatID != nil {
		t.Fatal("expired token must not bind")
	}
	if !strings.Contains(sender.sent[0].Text, "expired") {
		t.Fatalf("reply: %s", sender.sent[0].Text)
	}
}

func TestSendDailyReports(t *testing.T) {
	sender := &captureSender{}
	chat := "999"
	owners := &memOwnerStore{tokens: map[string]*domain.OwnerToken{
		"tok1": {ID: 1, Token: "tok1", ShopID: 1, ExpiresAt: time.Now().Add(time.Hour), TelegramChatID: &chat},
		"tok2": {ID: 2, Token: "tok2", ShopID: 2, ExpiresAt: time.Now().Add(time.Hour)},
	}}
	shops := &memShopStore{shops: map[int64]*domain.Shop{
		1: {ID: 1, ShopName: "Mobile King"},
		2: {ID: 2, ShopName: "Silent Shop"},
	}}
	g := testGateway(sender, nil, owners, shops)

	g.SendDailyReports(context.Background(), &fixedSummary{sum: service.DailyShopSummary{TotalJobs: 4, Income: 220000, Date: time.Now()}})

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want only the subscribed owner", len(sender.sent))
	}
	text := sender.sent[0].Text
	if !strings.Contains(text, "Mobile King") || !strings.Contains(text, "Jobs today: 4") || !strings.Contains(text, "220000 MMK") {
		t.Fatalf("report text: %s", text)
	}
}

func TestDeepLinkHelpers(t *testing.T) {
	if got := JobStartPayload(42); got != "job_42" {
		t.Fatalf("payload = %q", got)
	}
	if got := BotLink("mobilepro_bot", "job_42"); got != "https://t.me/mobilepro_bot?start=job_42" {
		t.Fatalf("link = %q", got)
	}
	tok, err := NewOwnerToken()
	if err != nil || len(tok) != 32 {
		t.Fatalf("token %q err %v", tok, err)
	}
	if got := OwnerStartPayload(tok); !strings.HasPrefix(got, "owner_") {
		t.Fatalf("owner payload = %q", got)
	}
}
