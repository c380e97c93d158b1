// Package updater drives the periodic synchronization of the bot's nickname
// and presence with the tracked asset's price.
package updater

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/complete-domination/xrp-price-bot/discord"
	"github.com/complete-domination/xrp-price-bot/pricefeed"
)

// State of the update loop lifecycle
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// Presence is the chat-platform surface the updater drives
type Presence interface {
	// Guilds returns the guilds the bot currently belongs to
	Guilds() []discord.Guild

	// BotPermissions resolves the bot's effective permissions in a guild
	BotPermissions(guildID string) (int64, error)

	// EditNickname sets the bot's own nickname with an audit reason
	EditNickname(guildID, nick, reason string) error

	// SetStatus updates the bot's presence line
	SetStatus(text string) error
}

// Options for creating an Updater
type Options struct {
	Fetcher  pricefeed.Fetcher     // Price source
	Presence Presence              // Discord surface
	GuildID  string                // Optional: restrict updates to this guild
	Interval time.Duration         // Time between update rounds
	OnQuote  func(pricefeed.Quote) // Optional: observes each acquired quote
}

// Updater owns the update loop and its lifecycle
type Updater struct {
	fetcher  pricefeed.Fetcher
	presence Presence
	guildID  string
	interval time.Duration
	onQuote  func(pricefeed.Quote)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Updater
func New(opts Options) *Updater {
	return &Updater{
		fetcher:  opts.Fetcher,
		presence: opts.Presence,
		guildID:  opts.GuildID,
		interval: opts.Interval,
		onQuote:  opts.OnQuote,
	}
}

// Start spawns the update loop. It is idempotent: repeated readiness signals
// (gateway reconnects) while the loop is running are no-ops, and a stopped
// updater stays stopped.
func (u *Updater) Start(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateNotStarted {
		return
	}
	u.state = StateRunning

	ctx, u.cancel = context.WithCancel(ctx)
	u.done = make(chan struct{})

	go u.run(ctx)

	log.Println("📡 Updater loop started")
}

// Stop cancels the loop and waits for it to drain. Safe to call multiple
// times or before Start.
func (u *Updater) Stop() {
	u.mu.Lock()

	if u.state != StateRunning {
		u.state = StateStopped
		u.mu.Unlock()

		return
	}

	u.state = StateStopped
	cancel, done := u.cancel, u.done
	u.mu.Unlock()

	cancel()
	<-done

	log.Println("🛑 Updater loop stopped")
}

// State reports the current lifecycle state
func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.state
}

// run repeats update rounds until the context is cancelled
func (u *Updater) run(ctx context.Context) {
	defer close(u.done)

	for {
		u.tick(ctx)

		if err := sleep(ctx, u.interval); err != nil {
			return
		}
	}
}

// tick runs one fetch / fan-out round. A panic anywhere inside is contained
// here, so a single bad round can never kill the loop.
func (u *Updater) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Updater loop error: %v", r)
		}
	}()

	targets := u.targets()
	if len(targets) == 0 {
		log.Println("📋 No guilds to update yet")
		return
	}

	// One shared quote per round; every guild observes the same outcome
	quote, fetchErr := u.fetcher.Acquire(ctx)
	if fetchErr == nil && u.onQuote != nil {
		u.onQuote(quote)
	}

	if ctx.Err() != nil {
		return
	}

	var wg sync.WaitGroup

	for _, g := range targets {
		wg.Add(1)

		go func(g discord.Guild) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("❌ [%s] Guild update panicked: %v", g.Name, r)
				}
			}()

			u.updateGuild(g, quote, fetchErr)
		}(g)
	}

	wg.Wait()
}

// targets resolves the guilds to update this round. A configured guild id
// that is not among the joined guilds yields an empty set, not an error.
func (u *Updater) targets() []discord.Guild {
	guilds := u.presence.Guilds()
	if u.guildID == "" {
		return guilds
	}

	for _, g := range guilds {
		if g.ID == u.guildID {
			return []discord.Guild{g}
		}
	}

	log.Println("📋 Configured GUILD_ID not found yet. Is the bot in that server?")

	return nil
}

// sleep waits for d unless ctx is cancelled first
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
