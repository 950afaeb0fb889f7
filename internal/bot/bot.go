// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game/coinflip"
	"telegram-casino-bot/internal/game/pool"
	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/handler"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
	"telegram-casino-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler  *handler.AccountHandler
	transferHandler *handler.TransferHandler
	adminHandler    *handler.AdminHandler
	gameHandler     *handler.GameHandler
	rouletteHandler *handler.RouletteHandler
	eventHandler    *handler.EventHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config          *config.Config
	AccountService  *service.AccountService
	TransferService *service.TransferService
	AdminService    *service.AdminService
	EventService    *service.EventService
	LedgerService   *service.LedgerService
	Sessions        *session.Registry
	RouletteRepo    *repository.RouletteRepository
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.accountHandler = handler.NewAccountHandler(deps.AccountService)
	b.transferHandler = handler.NewTransferHandler(deps.AccountService, deps.TransferService)
	b.adminHandler = handler.NewAdminHandler(deps.AccountService, deps.AdminService)
	b.gameHandler = handler.NewGameHandler(deps.Config, deps.AccountService, deps.LedgerService, deps.Sessions)
	b.rouletteHandler = handler.NewRouletteHandler(deps.Config, deps.AccountService, deps.LedgerService, deps.Sessions, deps.RouletteRepo)
	b.eventHandler = handler.NewEventHandler(deps.AccountService, deps.EventService)

	b.registerMiddleware()
	b.registerHandlers(deps.AdminService)

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers(adminService *service.AdminService) {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)
	b.bot.Handle("/top", b.accountHandler.HandleTop)
	b.bot.Handle("/history", b.accountHandler.HandleHistory)

	// Transfer handler
	b.bot.Handle("/give", b.transferHandler.HandleGive)

	// Solo game handlers
	b.bot.Handle("/blackjack", b.gameHandler.HandleBlackjack)
	b.bot.Handle("/bj", b.gameHandler.HandleBlackjack)
	b.bot.Handle("/flipcoin", b.gameHandler.HandleCoinFlip)
	b.bot.Handle("/fc", b.gameHandler.HandleCoinFlip)

	// Roulette betting is open to everyone; opening and spinning a round
	// is an issuer action, as are pool lifecycle and cash issuance.
	b.bot.Handle("/bet", b.rouletteHandler.HandleBet)
	b.bot.Handle("/mybets", b.rouletteHandler.HandleMyBets)
	b.bot.Handle("/joinbet", b.eventHandler.HandleJoinBet)
	b.bot.Handle("/bets", b.eventHandler.HandleOpenBets)

	adminGroup := b.bot.Group()
	adminGroup.Use(IssuerMiddleware(adminService))
	adminGroup.Handle("/roulette", b.rouletteHandler.HandleRoulette)
	adminGroup.Handle("/spin", b.rouletteHandler.HandleSpin)
	adminGroup.Handle("/createbet", b.eventHandler.HandleCreateBet)
	adminGroup.Handle("/endbet", b.eventHandler.HandleEndBet)
	adminGroup.Handle("/addcash", b.adminHandler.HandleAddCash)
	adminGroup.Handle("/removecash", b.adminHandler.HandleRemoveCash)
	adminGroup.Handle("/setadmin", b.adminHandler.HandleSetAdmin)
	adminGroup.Handle("/deladmin", b.adminHandler.HandleDelAdmin)

	// Inline keyboard reactions
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline button presses to the owning game handler.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 prefixes callback data with \f
	data := strings.TrimPrefix(callback.Data, "\f")

	switch data {
	case handler.CallbackHit:
		return b.gameHandler.HandleBlackjackAction(c, true)
	case handler.CallbackStand:
		return b.gameHandler.HandleBlackjackAction(c, false)
	case handler.CallbackHeads:
		return b.gameHandler.HandleCoinFlipChoice(c, coinflip.Heads)
	case handler.CallbackTails:
		return b.gameHandler.HandleCoinFlipChoice(c, coinflip.Tails)
	case handler.CallbackQuickRed:
		return b.rouletteHandler.HandleQuickBet(c, roulette.ColorRed)
	case handler.CallbackQuickBlack:
		return b.rouletteHandler.HandleQuickBet(c, roulette.ColorBlack)
	case handler.CallbackJoinRed:
		return b.eventHandler.HandleJoinCallback(c, pool.ChoiceRed)
	case handler.CallbackJoinBlue:
		return b.eventHandler.HandleJoinCallback(c, pool.ChoiceBlue)
	}

	log.Debug().Str("data", data).Msg("Unrecognized callback")
	return c.Respond(&tele.CallbackResponse{})
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
