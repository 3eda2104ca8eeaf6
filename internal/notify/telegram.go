package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// JobLinkTTL is how long a printed job QR stays scannable.
const JobLinkTTL = 30 * 24 * time.Hour

type JobStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Job, error)
	SetCustomerChatID(ctx context.Context, id int64, chatID string) error
}

type OwnerTokenStore interface {
	GetByToken(ctx context.Context, token string) (*domain.OwnerToken, error)
	SetChatID(ctx context.Context, id int64, chatID string) error
	ListSubscribed(ctx context.Context) ([]domain.OwnerToken, error)
}

type ShopStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Shop, error)
}

// Sender is the slice of the bot API the gateway uses; *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Gateway pushes job receipts to customers and daily summaries to owners
// over Telegram and binds chats via /start deep links.
type Gateway struct {
	Bot      Sender
	BotName  string
	Currency string
	Jobs     JobStore
	Owners   OwnerTokenStore
	Shops    ShopStore
	Logger   *slog.Logger
}

// NotifyStatusChange tells the bound customer chat about a job's new
// status. Jobs without a bound chat are skipped. A completed job gets the
// full receipt; other transitions get a one-line update.
func (g *Gateway) NotifyStatusChange(ctx context.Context, job *domain.Job) error {
	if job.CustomerChatID == nil {
		return nil
	}
	chatID, err := strconv.ParseInt(*job.CustomerChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q: %w", *job.CustomerChatID, err)
	}

	var text string
	if job.Status == domain.JobComplete {
		text = g.receipt(ctx, job)
	} else {
		text = fmt.Sprintf("Job %s (%s) is now %s.", job.JobNo, job.DeviceModel, statusLabel(job.Status))
	}
	_, err = g.Bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// receipt renders the customer-facing summary of a job.
func (g *Gateway) receipt(ctx context.Context, job *domain.Job) string {
	var shop *domain.Shop
	if g.Shops != nil {
		shop, _ = g.Shops.GetByID(ctx, job.ShopID)
	}
	var b strings.Builder
	if shop != nil {
		fmt.Fprintf(&b, "🧾 %s\n", shop.ShopName)
	}
	fmt.Fprintf(&b, "Job %s\n", job.JobNo)
	fmt.Fprintf(&b, "Device: %s", job.DeviceModel)
	if job.Color != "" {
		fmt.Fprintf(&b, " (%s)", job.Color)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Issue: %s\n", job.Issue)
	fmt.Fprintf(&b, "Parts: %d %s\n", job.PartsCost, g.Currency)
	fmt.Fprintf(&b, "Service: %d %s\n", job.ServiceFee, g.Currency)
	if job.Reserves > 0 {
		fmt.Fprintf(&b, "Reserves: -%d %s\n", job.Reserves, g.Currency)
	}
	fmt.Fprintf(&b, "Total: %d %s\n", job.TotalAmount, g.Currency)
	fmt.Fprintf(&b, "Status: %s", statusLabel(job.Status))
	if shop != nil && shop.CustomRule != "" {
		fmt.Fprintf(&b, "\n\n%s", shop.CustomRule)
	}
	return b.String()
}

func statusLabel(s domain.JobStatus) string {
	switch s {
	case domain.JobPending:
		return "pending"
	case domain.JobProgress:
		return "in progress"
	case domain.JobCancel:
		return "cancelled"
	case domain.JobComplete:
		return "ready for pickup"
	case domain.JobCheckedOut:
		return "picked up"
	default:
		return string(s)
	}
}

// Run consumes bot updates until ctx is cancelled. Only /start deep links
// are acted on; everything else gets a short hint.
func (g *Gateway) Run(ctx context.Context, bot *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			g.handleMessage(ctx, update.Message)
		}
	}
}

func (g *Gateway) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.Command() != "start" {
		g.reply(msg.Chat.ID, "Scan the QR code on your repair receipt to follow your job here.")
		return
	}
	payload := strings.TrimSpace(msg.CommandArguments())
	switch {
	case strings.HasPrefix(payload, "job_"):
		g.bindCustomer(ctx, msg.Chat.ID, strings.TrimPrefix(payload, "job_"))
	case strings.HasPrefix(payload, "owner_"):
		g.bindOwner(ctx, msg.Chat.ID, strings.TrimPrefix(payload, "owner_"))
	default:
		g.reply(msg.Chat.ID, "Hello! Scan a receipt QR code to get updates about your repair.")
	}
}

// bindCustomer links a chat to a job so later status changes reach the
// customer, and answers with the current receipt.
func (g *Gateway) bindCustomer(ctx context.Context, chatID int64, rawID string) {
	jobID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		g.reply(chatID, "That link does not look right. Please scan the QR code again.")
		return
	}
	job, err := g.Jobs.GetByID(ctx, jobID)
	if err != nil {
		g.reply(chatID, "We could not find that repair job.")
		return
	}
	if time.Since(job.CreatedAt) > JobLinkTTL {
		g.reply(chatID, "This receipt link has expired.")
		return
	}
	if err := g.Jobs.SetCustomerChatID(ctx, jobID, strconv.FormatInt(chatID, 10)); err != nil {
		g.Logger.Error("bind customer chat failed", "jobId", jobID, "error", err)
		g.reply(chatID, "Something went wrong, please try again.")
		return
	}
	job.CustomerChatID = ptr(strconv.FormatInt(chatID, 10))
	g.reply(chatID, g.receipt(ctx, job))
}

// bindOwner links a chat to a shop owner token for the evening summary.
func (g *Gateway) bindOwner(ctx context.Context, chatID int64, token string) {
	tok, err := g.Owners.GetByToken(ctx, token)
	if err != nil {
		g.reply(chatID, "That owner link is not valid.")
		return
	}
	if time.Now().After(tok.ExpiresAt) {
		g.reply(chatID, "This owner link has expired. Ask for a new one in the app.")
		return
	}
	if err := g.Owners.SetChatID(ctx, tok.ID, strconv.FormatInt(chatID, 10)); err != nil {
		g.Logger.Error("bind owner chat failed", "tokenId", tok.ID, "error", err)
		g.reply(chatID, "Something went wrong, please try again.")
		return
	}
	g.reply(chatID, "You are subscribed. A daily summary of your shop arrives every evening at 21:00.")
}

func (g *Gateway) reply(chatID int64, text string) {
	if _, err := g.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		g.Logger.Warn("telegram send failed", "chatId", chatID, "error", err)
	}
}

func ptr(s string) *string { return &s }
