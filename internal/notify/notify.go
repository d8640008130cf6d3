// Package notify announces new sales leads.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/pkg/logger"
)

const (
	leadColor      = 0xF5A623 // Amber
	maxMessageRune = 300
)

// webhookFunc posts a message through a Discord webhook, giving up when ctx is done
type webhookFunc func(ctx context.Context, params *discordgo.WebhookParams) (*discordgo.Message, error)

// DiscordNotifier posts new leads to a Discord channel webhook
type DiscordNotifier struct {
	execute  webhookFunc
	username string
	log      *slog.Logger
}

// NewDiscordNotifier creates a notifier for the given webhook ID and token.
// No bot token is needed; webhook execution is authenticated by the webhook token.
func NewDiscordNotifier(webhookID, webhookToken, username string, log *slog.Logger) (*DiscordNotifier, error) {
	if webhookID == "" || webhookToken == "" {
		return nil, fmt.Errorf("discord webhook id and token are required")
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 10 * time.Second
	session.Client = client

	return newDiscordNotifier(func(ctx context.Context, params *discordgo.WebhookParams) (*discordgo.Message, error) {
		return session.WebhookExecute(webhookID, webhookToken, true, params, discordgo.WithContext(ctx))
	}, username, log), nil
}

func newDiscordNotifier(execute webhookFunc, username string, log *slog.Logger) *DiscordNotifier {
	if username == "" {
		username = "Solarsite"
	}
	return &DiscordNotifier{
		execute:  execute,
		username: username,
		log:      logger.WithComponent(log, "discord_notifier"),
	}
}

// Name identifies the notifier in logs and metrics
func (n *DiscordNotifier) Name() string { return "discord" }

// NotifyLead posts an embed describing the lead
func (n *DiscordNotifier) NotifyLead(ctx context.Context, lead *entities.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.execute(ctx, &discordgo.WebhookParams{
		Username: n.username,
		Embeds:   []*discordgo.MessageEmbed{leadEmbed(lead)},
	})
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}

	if msg != nil {
		n.log.Debug("Posted lead announcement", "lead_id", lead.ID, "message_id", msg.ID)
	}
	return nil
}

func leadEmbed(lead *entities.Lead) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("☀️ New lead: %s", lead.Name),
		Color:     leadColor,
		Timestamp: lead.CreatedAt.UTC().Format(time.RFC3339),
		Fields:    []*discordgo.MessageEmbedField{},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Lead %s · source %s", lead.ID, lead.Source),
		},
	}

	addField := func(name, value string, inline bool) {
		if value == "" {
			return
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	}

	addField("Email", lead.Email, true)
	addField("Phone", lead.Phone, true)

	location := lead.City
	if lead.State != "" {
		if location != "" {
			location += " / "
		}
		location += lead.State
	}
	addField("Location", location, true)

	if lead.MonthlyBill > 0 {
		addField("Monthly bill", fmt.Sprintf("R$ %.2f", lead.MonthlyBill), true)
	}

	if lead.Message != "" {
		embed.Description = "> " + strings.ReplaceAll(truncate(lead.Message, maxMessageRune), "\n", "\n> ")
	}
	return embed
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// LogNotifier writes leads to the structured log. Used when no webhook is configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.WithComponent(log, "log_notifier")}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) NotifyLead(ctx context.Context, lead *entities.Lead) error {
	n.log.InfoContext(ctx, "new lead",
		slog.String("lead_id", lead.ID),
		slog.String("name", lead.Name),
		slog.String("city", lead.City),
		slog.String("state", lead.State),
		slog.Float64("monthly_bill", lead.MonthlyBill),
		slog.String("source", lead.Source))
	return nil
}
