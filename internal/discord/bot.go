// Package discord adapts the game to the Discord gateway. All chat
// parsing and platform calls live here; the command service below it
// never sees a discordgo type.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/bot"
	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/guilds"
	"github.com/wab3io/MarketMover/internal/models"
	"github.com/wab3io/MarketMover/internal/render"
)

const (
	emojiUp   = "📈"
	emojiDown = "📉"
)

type trackedRound struct {
	guildID  string
	category models.Category
}

// Bot owns the gateway session. It dispatches prefix commands to the
// command service and routes 📈/📉 reactions on tracked round posts to
// free predictions. It is also the scheduler's Announcer.
type Bot struct {
	Session  *discordgo.Session
	Service  *bot.Service
	Guilds   *guilds.Registry
	Logger   *zap.Logger
	Prefix   string
	SettleAt string

	mu      sync.Mutex
	tracked map[string]trackedRound // message ID -> round
}

func New(token string, svc *bot.Service, reg *guilds.Registry, logger *zap.Logger, prefix, settleAt string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	if prefix == "" {
		prefix = "!"
	}
	b := &Bot{
		Session:  s,
		Service:  svc,
		Guilds:   reg,
		Logger:   logger,
		Prefix:   prefix,
		SettleAt: settleAt,
		tracked:  map[string]trackedRound{},
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onGuildCreate)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onReactionAdd)
	return b, nil
}

func (b *Bot) Start() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if b.Logger != nil {
		b.Logger.Info("discord ready",
			zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.Guilds.Ensure(context.Background(), g.ID)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.Prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(content, b.Prefix))
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	reply, err := b.dispatch(m, cmd, args)
	if err != nil {
		reply = render.ErrorMessage(err)
	}
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil && b.Logger != nil {
		b.Logger.Warn("reply send failed", zap.String("channel", m.ChannelID), zap.Error(err))
	}
}

func (b *Bot) dispatch(m *discordgo.MessageCreate, cmd string, args []string) (string, error) {
	ctx := context.Background()
	playerID := m.Author.ID
	name := displayName(m)

	switch cmd {
	case "predict":
		if len(args) < 2 {
			return fmt.Sprintf("Usage: %spredict <up/down> <crypto/stock/forex>", b.Prefix), nil
		}
		return b.Service.Predict(m.GuildID, playerID, name, args[0], args[1])
	case "bet":
		if len(args) < 3 {
			return fmt.Sprintf("Usage: %sbet <points> <up/down> <crypto/stock/forex>", b.Prefix), nil
		}
		points, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", models.ErrInvalidAmount
		}
		return b.Service.Bet(m.GuildID, playerID, name, points, args[1], args[2])
	case "leverage":
		if len(args) < 2 {
			return fmt.Sprintf("Usage: %sleverage <points> <crypto/stock/forex>", b.Prefix), nil
		}
		points, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", models.ErrInvalidAmount
		}
		return b.Service.Leverage(m.GuildID, playerID, name, points, args[1])
	case "daily":
		return b.Service.Daily(playerID, name)
	case "tip":
		if len(args) < 2 {
			return fmt.Sprintf("Usage: %stip <@user> <points>", b.Prefix), nil
		}
		if len(m.Mentions) == 0 {
			return "Mention the player you want to tip.", nil
		}
		points, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return "", models.ErrInvalidAmount
		}
		target := m.Mentions[0]
		return b.Service.Tip(playerID, name, target.ID, target.Username, points)
	case "subscribe":
		if len(args) < 1 {
			return fmt.Sprintf("Usage: %ssubscribe <crypto/stock/forex>", b.Prefix), nil
		}
		return b.Service.Subscribe(playerID, name, args[0])
	case "profile":
		targetID := ""
		if len(m.Mentions) > 0 {
			targetID = m.Mentions[0].ID
		}
		return b.Service.Profile(playerID, name, targetID)
	case "leaderboard":
		return b.Service.Leaderboard(), nil
	case "forcepost":
		return b.Service.ForcePost(ctx, m.GuildID, playerID)
	case "resetpoints":
		if len(m.Mentions) == 0 {
			return "Mention the player to reset.", nil
		}
		return b.Service.ResetPoints(playerID, m.Mentions[0].ID)
	case "setchannel":
		return b.Service.SetChannel(ctx, m.GuildID, m.ChannelID, channelMention(m.ChannelID)), nil
	case "setalertchannel":
		return b.Service.SetAlertChannel(ctx, m.GuildID, m.ChannelID, channelMention(m.ChannelID)), nil
	case "settimezone":
		if len(args) < 1 {
			return fmt.Sprintf("Usage: %ssettimezone <IANA zone, e.g. America/New_York>", b.Prefix), nil
		}
		return b.Service.SetTimezone(ctx, m.GuildID, args[0])
	case "help":
		return b.helpText(), nil
	default:
		return "", nil
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	var dir models.Direction
	switch r.Emoji.Name {
	case emojiUp:
		dir = models.DirectionUp
	case emojiDown:
		dir = models.DirectionDown
	default:
		return
	}
	b.mu.Lock()
	tr, ok := b.tracked[r.MessageID]
	b.mu.Unlock()
	if !ok {
		return
	}
	// Reaction events often arrive without member data; fall back to a
	// user fetch so a first-time player gets a real display name.
	name := ""
	if r.Member != nil && r.Member.User != nil {
		name = r.Member.User.Username
	}
	if name == "" {
		if u, err := s.User(r.UserID); err == nil && u != nil {
			name = u.Username
		}
	}
	reply, err := b.Service.Predict(tr.guildID, r.UserID, name, string(dir), string(tr.category))
	if err != nil {
		// Duplicate reactions are common and not worth a channel message.
		return
	}
	if _, err := s.ChannelMessageSend(r.ChannelID, reply); err != nil && b.Logger != nil {
		b.Logger.Warn("reaction reply send failed", zap.String("channel", r.ChannelID), zap.Error(err))
	}
}

// AnnounceOpen posts one message per round to the guild's channel,
// seeds the prediction reactions, and tracks the message IDs so later
// reactions resolve to the right round.
func (b *Bot) AnnounceOpen(ctx context.Context, g models.GuildConfig, rounds []models.Round) {
	channelID := g.ChannelID
	if channelID == "" {
		if b.Logger != nil {
			b.Logger.Warn("no channel configured, skipping round announcement",
				zap.String("guild", g.GuildID))
		}
		return
	}
	for _, r := range rounds {
		text := render.RoundDescription(r, b.SettleAt)
		if subs := b.Service.Ledger.Subscribers(r.Category); len(subs) > 0 {
			mentions := make([]string, 0, len(subs))
			for _, id := range subs {
				mentions = append(mentions, "<@"+id+">")
			}
			text += "\n" + strings.Join(mentions, " ")
		}
		msg, err := b.Session.ChannelMessageSend(channelID, text)
		if err != nil {
			if b.Logger != nil {
				b.Logger.Warn("round announcement failed",
					zap.String("guild", g.GuildID), zap.String("category", string(r.Category)), zap.Error(err))
			}
			continue
		}
		for _, emoji := range []string{emojiUp, emojiDown} {
			if err := b.Session.MessageReactionAdd(channelID, msg.ID, emoji); err != nil && b.Logger != nil {
				b.Logger.Warn("seed reaction failed", zap.String("message", msg.ID), zap.Error(err))
			}
		}
		b.mu.Lock()
		b.tracked[msg.ID] = trackedRound{guildID: g.GuildID, category: r.Category}
		b.mu.Unlock()
	}
}

// AnnounceResults posts settlement summaries to the alert channel,
// falling back to the main channel, and drops the round's tracked
// messages.
func (b *Bot) AnnounceResults(ctx context.Context, g models.GuildConfig, reports []*game.SettlementReport) {
	channelID := g.AlertChannelID
	if channelID == "" {
		channelID = g.ChannelID
	}
	if channelID == "" {
		return
	}
	for _, rep := range reports {
		if _, err := b.Session.ChannelMessageSend(channelID, render.ResultSummary(rep)); err != nil && b.Logger != nil {
			b.Logger.Warn("result announcement failed",
				zap.String("guild", g.GuildID), zap.String("category", string(rep.Round.Category)), zap.Error(err))
		}
	}
	b.mu.Lock()
	for id, tr := range b.tracked {
		if tr.guildID == g.GuildID {
			delete(b.tracked, id)
		}
	}
	b.mu.Unlock()
}

func (b *Bot) helpText() string {
	p := b.Prefix
	return strings.Join([]string{
		"MarketMover commands:",
		p + "predict <up/down> <category> - free prediction",
		p + "bet <points> <up/down> <category> - wager points",
		p + "leverage <points> <category> - raise an existing bet",
		p + "daily - claim the daily bonus",
		p + "tip <@user> <points> - send points to a player",
		p + "subscribe <category> - toggle round pings",
		p + "profile [@user] - balance and recent rounds",
		p + "leaderboard - top players",
		p + "setchannel / " + p + "setalertchannel - route announcements here",
		p + "settimezone <zone> - set the schedule timezone",
	}, "\n")
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return m.Author.Username
}

func channelMention(id string) string {
	return "<#" + id + ">"
}
