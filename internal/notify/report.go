package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

// DailyReportSpec fires the owner summary every evening at nine.
const DailyReportSpec = "0 21 * * *"

type SummarySource interface {
	DailySummary(ctx context.Context, shop *domain.Shop, ref time.Time) (*service.DailyShopSummary, error)
}

// StartDailyReports schedules the evening owner summary. The returned cron
// should be stopped on shutdown.
func (g *Gateway) StartDailyReports(reports SummarySource, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		g.SendDailyReports(ctx, reports)
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// SendDailyReports pushes today's job count and income to every owner with
// a bound chat. Pure read; one failing shop does not stop the rest.
func (g *Gateway) SendDailyReports(ctx context.Context, reports SummarySource) {
	tokens, err := g.Owners.ListSubscribed(ctx)
	if err != nil {
		g.Logger.Error("list subscribed owners failed", "error", err)
		return
	}
	now := time.Now()
	for _, tok := range tokens {
		shop, err := g.Shops.GetByID(ctx, tok.ShopID)
		if err != nil {
			g.Logger.Warn("daily report shop lookup failed", "shopId", tok.ShopID, "error", err)
			continue
		}
		sum, err := reports.DailySummary(ctx, shop, now)
		if err != nil {
			g.Logger.Warn("daily summary failed", "shopId", shop.ID, "error", err)
			continue
		}
		chatID, err := strconv.ParseInt(*tok.TelegramChatID, 10, 64)
		if err != nil {
			g.Logger.Warn("bad owner chat id", "tokenId", tok.ID, "error", err)
			continue
		}
		text := fmt.Sprintf("📊 %s — %s\nJobs today: %d\nIncome: %d %s",
			sum.ShopName, sum.Date.Format("2006-01-02"), sum.TotalJobs, sum.Income, g.Currency)
		if _, err := g.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			g.Logger.Warn("daily report send failed", "shopId", shop.ID, "error", err)
		}
	}
}
