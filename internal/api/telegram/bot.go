package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "plc-vision/internal/application"
	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я бот станции контроля деталей.

📋 Команды:
/status — состояние связи с ПЛК и последние результаты
/snapshot — последний кадр с камеры
/subscribe — присылать уведомления о связи с ПЛК
/unsubscribe — отключить уведомления
/help — справка`

	msgHelp = `ℹ️ Станция сама опрашивает ПЛК и анализирует кадр, когда под камерой новое изделие.

📋 Команды:
/status — состояние станции
/snapshot — последний кадр
/subscribe, /unsubscribe — уведомления о связи с ПЛК`

	msgSubscribed     = "🔔 Уведомления о связи с ПЛК включены."
	msgUnsubscribed   = "🔕 Уведомления отключены."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendCommand    = "📋 Отправьте команду, например /status."
	msgNoFrame        = "📷 Кадра с камеры ещё нет."
	msgStatusError    = "⚠️ Не удалось получить состояние станции."

	alertQueueSize = 32
)

// Bot представляет Telegram-бота оператора
type Bot struct {
	api       *tgbotapi.BotAPI
	operators *app.OperatorService
	station   *app.StationService
	log       *slog.Logger
	alerts    chan entity.LinkEvent
}

// NewBot создаёт нового бота
func NewBot(token string, operators *app.OperatorService, station *app.StationService, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("component", "telegram")
	logger.Info("authorized on account", "user", api.Self.UserName)

	return &Bot{
		api:       api,
		operators: operators,
		station:   station,
		log:       logger,
		alerts:    make(chan entity.LinkEvent, alertQueueSize),
	}, nil
}

// OnLinkEvent ставит событие связи в очередь уведомлений; при переполнении событие теряется.
func (b *Bot) OnLinkEvent(ev entity.LinkEvent) {
	if ev.Kind == entity.LinkFailed {
		return
	}
	select {
	case b.alerts <- ev:
	default:
	}
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.alerts:
			b.broadcast(ctx, formatLinkEvent(ev))
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgSendCommand)
		return
	}

	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "status":
		st, err := b.station.Status(ctx)
		if err != nil {
			b.log.Error("status failed", "error", err)
			b.sendMessage(msg.Chat.ID, msgStatusError)
			return
		}
		b.sendMessage(msg.Chat.ID, formatStatus(st))

	case "snapshot":
		b.sendSnapshot(msg.Chat.ID)

	case "subscribe":
		if _, err := b.operators.Subscribe(ctx, senderID(msg), msg.Chat.ID); err != nil {
			b.log.Error("subscribe failed", "error", err)
			return
		}
		b.sendMessage(msg.Chat.ID, msgSubscribed)

	case "unsubscribe":
		if _, err := b.operators.Unsubscribe(ctx, senderID(msg), msg.Chat.ID); err != nil {
			b.log.Error("unsubscribe failed", "error", err)
			return
		}
		b.sendMessage(msg.Chat.ID, msgUnsubscribed)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// senderID автор сообщения; у сообщений от имени чата From пустой
func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

// sendSnapshot отправляет последний кадр фотографией
func (b *Bot) sendSnapshot(chatID int64) {
	data, seq, err := b.station.Snapshot()
	if errors.Is(err, app.ErrNoSnapshot) {
		b.sendMessage(chatID, msgNoFrame)
		return
	}
	if err != nil {
		b.log.Error("snapshot failed", "error", err)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("frame-%d.jpg", seq),
		Bytes: data,
	})
	photo.Caption = fmt.Sprintf("Кадр #%d", seq)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("error sending photo", "error", err)
	}
}

func (b *Bot) broadcast(ctx context.Context, text string) {
	chats, err := b.operators.SubscribedChats(ctx)
	if err != nil {
		b.log.Error("cannot list subscribers", "error", err)
		return
	}
	for _, chatID := range chats {
		b.sendMessage(chatID, text)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// formatLinkEvent текст уведомления о связи
func formatLinkEvent(ev entity.LinkEvent) string {
	at := ev.At.Format("15:04:05")
	switch {
	case ev.Kind == entity.LinkUp && ev.Restored():
		return fmt.Sprintf("✅ %s Связь с ПЛК восстановлена (переподключений: %d)", at, ev.Reconnects)
	case ev.Kind == entity.LinkUp:
		return fmt.Sprintf("✅ %s ПЛК: подключение по OPC UA выполнено", at)
	case ev.Kind == entity.LinkDown:
		return fmt.Sprintf("⚠️ %s Связь с ПЛК потеряна: %v", at, ev.Err)
	default:
		return fmt.Sprintf("ℹ️ %s ПЛК: %s", at, ev.Kind)
	}
}

// formatStatus текст ответа на /status
func formatStatus(st *app.StationStatus) string {
	var sb strings.Builder

	if st.Link.Bound {
		sb.WriteString("🟢 ПЛК на связи")
	} else {
		sb.WriteString("🔴 Нет связи с ПЛК")
		if st.Link.ConsecutiveFailures > 0 {
			fmt.Fprintf(&sb, " (неудачных попыток: %d)", st.Link.ConsecutiveFailures)
		}
	}
	fmt.Fprintf(&sb, "\nПереподключений: %d", st.Link.Reconnects)

	if st.FrameSeq > 0 {
		fmt.Fprintf(&sb, "\n📷 Последний кадр: #%d", st.FrameSeq)
	} else {
		sb.WriteString("\n📷 Кадров с камеры нет")
	}

	fmt.Fprintf(&sb, "\n📊 Изделий: %d, годных: %d, брак: %d, ошибок: %d",
		st.Totals.Total, st.Totals.Passed, st.Totals.Failed, st.Totals.Errors)

	if last := st.LastInspection(); last != nil {
		fmt.Fprintf(&sb, "\nПоследнее: %s — %s", last.At.Format(time.TimeOnly), describe(*last))
	}
	return sb.String()
}

func describe(rec entity.Inspection) string {
	switch {
	case rec.ErrorCode == entity.ErrNoFrame:
		return "нет кадра (код 10)"
	case rec.ErrorCode != entity.ErrNone:
		return fmt.Sprintf("ошибка анализа (код %d)", rec.ErrorCode)
	case rec.Result == entity.ResultPass:
		return "годная"
	case rec.Result == entity.ResultFail:
		return "брак"
	default:
		return "нет решения"
	}
}

// Проверка реализации интерфейса
var _ port.LinkObserver = (*Bot)(nil)
