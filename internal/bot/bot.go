// Package bot is the Telegram front end for the coaching pipeline.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/entitlement"
	"github.com/xaenox/mind-coach/internal/models"
)

const (
	historyLimit = 6
	// historyUsers bounds how many conversations are kept in memory.
	historyUsers = 10000
)

// Coach is the part of the coaching service the bot drives.
type Coach interface {
	Handle(ctx context.Context, msg models.CoachingMessage) (models.CoachingResponse, error)
	CurrentTask(ctx context.Context, userID string) (models.Microtask, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	coach       Coach
	entitlement entitlement.Checker
	logger      *zap.Logger

	mu      sync.Mutex
	history *lru.Cache[string, []string]
}

func New(token string, coach Coach, checker entitlement.Checker, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b, err := newBot(api, coach, checker, historyUsers, logger)
	if err != nil {
		return nil, err
	}
	b.api = api
	return b, nil
}

func newBot(s sender, coach Coach, checker entitlement.Checker, users int, logger *zap.Logger) (*Bot, error) {
	history, err := lru.New[string, []string](users)
	if err != nil {
		return nil, fmt.Errorf("history cache init: %w", err)
	}
	return &Bot{
		sender:      s,
		coach:       coach,
		entitlement: checker,
		logger:      logger.With(zap.String("component", "telegram")),
		history:     history,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		go b.handleMessage(ctx, update.Message)
	}
	return ctx.Err()
}

func userID(from *tgbotapi.User) string {
	return "tg:" + strconv.FormatInt(from.ID, 10)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		return
	}
	b.coachTurn(ctx, message, content, &models.CoachingContext{SessionType: models.SessionDiagnostic})
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "plan":
		b.handlePlan(ctx, message, args)
	case "habits":
		b.handleHabits(ctx, message, args)
	case "task":
		b.handleTask(ctx, message)
	case "reflect":
		b.handleReflect(ctx, message, args)
	case "snapshot":
		b.coachTurn(ctx, message, "Show my snapshot", &models.CoachingContext{SessionType: models.SessionSnapshotGeneration})
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to Mind Coach!
I'm here to help you understand what drives you and to turn your goals into small, doable steps.

Just tell me what's on your mind, or use /help to see what I can do.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/plan <situation> - Get a personalized plan
/habits <goal> - Get five tiny habits and a first step
/task - Show your current task
/reflect <how it went> - Reflect on your current task and get the next one
/snapshot - Show your onboarding snapshot

Any other message starts a coaching conversation.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handlePlan(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		args = "Help me plan my next step."
	}
	b.coachTurn(ctx, message, args, &models.CoachingContext{SessionType: models.SessionIntervention})
}

func (b *Bot) handleHabits(ctx context.Context, message *tgbotapi.Message, goal string) {
	if goal == "" {
		b.sendMessage(message.Chat.ID, "Tell me your goal, for example: /habits sleep better")
		return
	}
	b.coachTurn(ctx, message, goal, &models.CoachingContext{SessionType: models.SessionGoalSetting, CurrentGoal: goal})
}

func (b *Bot) handleTask(ctx context.Context, message *tgbotapi.Message) {
	task, err := b.coach.CurrentTask(ctx, userID(message.From))
	if errors.Is(err, models.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "You don't have a current task yet. Use /habits <goal> to get one.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to get current task",
			zap.Error(err),
			zap.Int64("telegram_user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your task. Please try again later.")
		return
	}

	text := fmt.Sprintf("*Your current task:*\n%s\n\n_%s_", escapeMarkdown(task.Task), escapeMarkdown(task.Rationale))
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send task message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleReflect(ctx context.Context, message *tgbotapi.Message, reflection string) {
	if reflection == "" {
		b.sendMessage(message.Chat.ID, "Tell me how your task went, for example: /reflect I did it but it was hard")
		return
	}
	task, err := b.coach.CurrentTask(ctx, userID(message.From))
	if errors.Is(err, models.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "There's no task to reflect on yet. Use /habits <goal> to get one.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to get current task",
			zap.Error(err),
			zap.Int64("telegram_user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your task. Please try again later.")
		return
	}

	b.coachTurn(ctx, message, reflection, &models.CoachingContext{
		SessionType:  models.SessionReflection,
		PreviousTask: &task,
		ReflectionID: uuid.NewString(),
	})
}

// coachTurn runs one message through the pipeline and replies with the result.
func (b *Bot) coachTurn(ctx context.Context, message *tgbotapi.Message, text string, cc *models.CoachingContext) {
	user := userID(message.From)
	cc.PreviousMessages = b.recentHistory(user)

	if cc.SessionType.RequiresEntitlement() {
		active, err := b.entitlement.Active(ctx, user)
		if err != nil {
			b.logger.Error("Failed to check entitlement", zap.Error(err), zap.String("user_id", user))
			b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again later.")
			return
		}
		if !active {
			b.sendMessage(message.Chat.ID, "This feature needs an active subscription.")
			return
		}
	}

	resp, err := b.coach.Handle(ctx, models.CoachingMessage{
		Message:   text,
		UserID:    user,
		SessionID: strconv.FormatInt(message.Chat.ID, 10),
		Context:   cc,
	})
	if err != nil {
		var modelErr *models.Error
		if errors.As(err, &modelErr) {
			b.sendMessage(message.Chat.ID, modelErr.Message)
			return
		}
		b.logger.Error("Failed to handle coaching message",
			zap.Error(err),
			zap.String("user_id", user),
			zap.String("session_type", string(cc.SessionType)))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't process your message. Please try again.")
		return
	}

	if resp.Type != models.ResponseCrisis {
		b.remember(user, text, resp.Content)
	}
	b.sendReply(message.Chat.ID, message.MessageID, resp.Content)
}

func (b *Bot) recentHistory(user string) []string {
	h, _ := b.history.Peek(user)
	return append([]string(nil), h...)
}

func (b *Bot) remember(user, message, reply string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, _ := b.history.Get(user)
	h := make([]string, 0, len(prev)+2)
	h = append(append(h, prev...), message, reply)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	b.history.Add(user, h)
}

// escapeMarkdown escapes special characters for MarkdownV2.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendReply(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToID
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send coaching reply",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
