package engine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/domain/provablyfair"
	"github.com/crashgame/backend/domain/wallet"
	"github.com/crashgame/backend/internal/config"
	"github.com/crashgame/backend/internal/game/rng"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// growthK is the exponent rate of the multiplier curve, per elapsed
// millisecond: M(t) = exp(growthK * t), so M(10s) ~ 1.82 and M(11.5s) ~ 2.0.
const growthK = 6e-5

type betCmd struct {
	in   crash.PlaceBetInput
	resp chan betResp
}

type betResp struct {
	res *crash.PlaceBetResult
	err error
}

type cashoutCmd struct {
	in   crash.CashoutInput
	resp chan cashoutResp
}

type cashoutResp struct {
	res *crash.CashoutResult
	err error
}

// Engine is the round actor. It owns the active round, its bet book, the
// tick timer and the crash-history ring; every mutation of round state is
// serialised through its loop.
type Engine struct {
	cfg     config.GameConfig
	seeds   *rng.SeedSource
	wallet  wallet.Port
	bus     crash.Bus
	pf      provablyfair.Service
	persist *persister
	log     *logger.Logger

	betCh     chan betCmd
	cashoutCh chan cashoutCmd
	stopped   chan struct{}
	stopOnce  sync.Once

	// in-flight wallet credits; settlement hands the credit to a goroutine
	// so the tick loop never waits on the wallet
	creditWG sync.WaitGroup

	view atomic.Pointer[crash.PublicView]

	histMu  sync.RWMutex
	history []crash.HistoryEntry

	// actor-owned round state; touched only from the run loop
	round   *crash.Round
	book    *betBook
	limiter *rateLimiter
}

// New wires the round actor. pf, writer, archive and historyStore may be nil
// in tests.
func New(
	cfg config.GameConfig,
	seeds *rng.SeedSource,
	walletPort wallet.Port,
	eventBus crash.Bus,
	pf provablyfair.Service,
	writer crash.SettledBetWriter,
	archive crash.RoundArchive,
	historyStore crash.HistoryStore,
	log *logger.Logger,
) *Engine {
	e := &Engine{
		cfg:       cfg,
		seeds:     seeds,
		wallet:    walletPort,
		bus:       eventBus,
		pf:        pf,
		persist:   newPersister(writer, archive, historyStore, log),
		log:       log,
		betCh:     make(chan betCmd, 256),
		cashoutCh: make(chan cashoutCmd, 256),
		stopped:   make(chan struct{}),
		limiter:   newRateLimiter(cfg.BetCooldownMs),
	}
	empty := crash.PublicView{}
	e.view.Store(&empty)
	return e
}

var _ crash.Engine = (*Engine)(nil)

// Run drives the WAITING -> RUNNING -> CRASHED loop until ctx is cancelled.
// Shutdown aborts the round in whatever state it is in; no new bets settle.
func (e *Engine) Run(ctx context.Context) error {
	defer e.stopOnce.Do(func() { close(e.stopped) })
	defer e.creditWG.Wait()

	pctx, pcancel := context.WithCancel(context.Background())
	defer pcancel()
	go e.persist.run(pctx)

	e.rehydrateHistory(ctx)

	for seq := int64(1); ; seq++ {
		if err := e.runRound(ctx, seq); err != nil {
			e.log.Info().Int64("sequence", seq).Msg("Round loop stopped")
			return err
		}
	}
}

// PlaceBet submits a place_bet command to the actor.
func (e *Engine) PlaceBet(ctx context.Context, in crash.PlaceBetInput) (*crash.PlaceBetResult, error) {
	cmd := betCmd{in: in, resp: make(chan betResp, 1)}
	select {
	case e.betCh <- cmd:
	case <-e.stopped:
		return nil, crash.ErrNoActiveRound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-cmd.resp:
		return r.res, r.err
	case <-e.stopped:
		return nil, crash.ErrNoActiveRound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cashout submits a cashout command to the actor.
func (e *Engine) Cashout(ctx context.Context, in crash.CashoutInput) (*crash.CashoutResult, error) {
	cmd := cashoutCmd{in: in, resp: make(chan cashoutResp, 1)}
	select {
	case e.cashoutCh <- cmd:
	case <-e.stopped:
		return nil, crash.ErrNoActiveRound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-cmd.resp:
		return r.res, r.err
	case <-e.stopped:
		return nil, crash.ErrNoActiveRound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CurrentView returns the public view of the active round.
func (e *Engine) CurrentView() crash.PublicView {
	return *e.view.Load()
}

// History returns the crash-history ring, most recent first.
func (e *Engine) History() []crash.HistoryEntry {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	out := make([]crash.HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Engine) rehydrateHistory(ctx context.Context) {
	if e.persist.history == nil {
		return
	}
	entries, err := e.persist.history.RecentHistory(ctx, e.cfg.MaxHistory)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to rehydrate crash history")
		return
	}
	e.histMu.Lock()
	e.history = entries
	e.histMu.Unlock()
}

// runRound plays one full round. Returns ctx.Err() on shutdown.
func (e *Engine) runRound(ctx context.Context, seq int64) error {
	serverSeed := e.seeds.RoundSeed(seq)
	commitment := rng.Commitment(serverSeed)
	params := rng.CrashPointParams{HouseEdge: e.cfg.HouseEdge, MaxCrashPoint: e.cfg.MaxCrashPoint}

	curves := make([]crash.Curve, e.cfg.CurveCount)
	for i := range curves {
		tag := ""
		if i == 1 {
			tag = rng.Dragon2Tag
		}
		curves[i] = crash.Curve{
			Slot:              i + 1,
			CrashPoint:        rng.CrashPoint(serverSeed, e.cfg.ClientSeed, seq, tag, params),
			CurrentMultiplier: 1.00,
		}
	}

	e.round = &crash.Round{
		ID:             uuid.New(),
		SequenceNumber: seq,
		State:          crash.RoundStateWaiting,
		ServerSeed:     serverSeed,
		Commitment:     commitment,
		ClientSeed:     e.cfg.ClientSeed,
		Curves:         curves,
	}
	e.book = newBetBook()

	e.publishState()
	e.log.Info().
		Int64("sequence", seq).
		Str("commitment", commitment).
		Msg("Round entered WAITING")

	// betting window
	if done, err := e.phase(ctx, e.cfg.WaitingMs); done || err != nil {
		return err
	}

	// running
	e.round.State = crash.RoundStateRunning
	e.round.StartedAt = time.Now()
	e.publishState()

	if err := e.runTicks(ctx); err != nil {
		return err
	}

	// reveal window
	e.round.State = crash.RoundStateCrashed
	e.round.CrashedAt = time.Now()
	e.finalizeRound()
	e.publishState()

	if _, err := e.phase(ctx, e.cfg.CrashedMs); err != nil {
		return err
	}
	return nil
}

// phase serves commands for a fixed duration while the round is not ticking.
func (e *Engine) phase(ctx context.Context, d time.Duration) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return false, nil
		case cmd := <-e.betCh:
			cmd.resp <- e.handlePlaceBet(cmd.in)
		case cmd := <-e.cashoutCh:
			cmd.resp <- e.handleCashout(cmd.in)
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

// runTicks drives the 100ms tick loop until every curve has crashed.
func (e *Engine) runTicks(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickMs)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if e.handleTick(now) {
				return nil
			}
		case cmd := <-e.betCh:
			cmd.resp <- e.handlePlaceBet(cmd.in)
		case cmd := <-e.cashoutCh:
			cmd.resp <- e.handleCashout(cmd.in)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleTick advances every still-running curve, fires auto-cashouts, and
// reports whether the whole round has crashed. A panic inside settlement is
// caught here so a single bad bet cannot stall the loop.
func (e *Engine) handleTick(now time.Time) (allCrashed bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Recovered from panic in tick handler")
		}
	}()

	elapsed := now.Sub(e.round.StartedAt).Milliseconds()
	m := multiplierAt(elapsed)

	for i := range e.round.Curves {
		c := &e.round.Curves[i]
		if c.Crashed {
			continue
		}
		if m >= c.CrashPoint {
			e.crashCurve(c, now)
		} else {
			c.CurrentMultiplier = m
			e.autoCashoutScan(c, m)
		}
	}

	e.publishTick(elapsed)

	allCrashed = true
	for i := range e.round.Curves {
		if !e.round.Curves[i].Crashed {
			allCrashed = false
			break
		}
	}
	return allCrashed
}

// crashCurve ends one curve: auto-cashouts whose target the curve actually
// reached fire first (a target exactly equal to the crash point settles),
// then every remaining ACTIVE bet on the slot is LOST.
func (e *Engine) crashCurve(c *crash.Curve, now time.Time) {
	c.CurrentMultiplier = c.CrashPoint
	for _, bet := range e.book.activeOnSlot(c.Slot) {
		if bet.AutoCashoutTarget > 0 && bet.AutoCashoutTarget <= c.CrashPoint {
			e.settleCashout(bet, c, bet.AutoCashoutTarget, false)
		}
	}
	c.Crashed = true
	c.CrashedAt = now

	for _, bet := range e.book.activeOnSlot(c.Slot) {
		bet.Status = crash.BetStatusLost
		bet.Profit = bet.Amount.Neg()
		e.persist.enqueueBet(e.settledRecord(bet, c))
	}

	if e.cfg.CurveCount > 1 {
		e.bus.Publish(crash.Event{Type: crash.EventCurveCrashed, CurveCrashed: &crash.CurveCrashedEvent{
			Slot:           c.Slot,
			CrashPoint:     c.CrashPoint,
			SequenceNumber: e.round.SequenceNumber,
		}})
	}
	e.log.Info().
		Int64("sequence", e.round.SequenceNumber).
		Int("slot", c.Slot).
		Float64("crash_point", c.CrashPoint).
		Msg("Curve crashed")
}

// autoCashoutScan fires every ACTIVE bet on a still-running curve whose
// target has been reached. Bets are visited in insertion order and each one
// fully settles before the next tick sees it.
func (e *Engine) autoCashoutScan(c *crash.Curve, current float64) {
	for _, bet := range e.book.activeOnSlot(c.Slot) {
		if bet.AutoCashoutTarget > 0 && bet.AutoCashoutTarget <= current {
			e.settleCashout(bet, c, bet.AutoCashoutTarget, false)
		}
	}
}

// handlePlaceBet validates in the exact precondition order and debits the
// wallet last, so a failure at any step leaves neither the wallet debited
// nor a bet recorded.
func (e *Engine) handlePlaceBet(in crash.PlaceBetInput) betResp {
	now := time.Now()
	slot := in.Slot
	if slot == 0 {
		slot = 1
	}

	// every attempt moves the cooldown window, accepted or not
	prevAttempt := e.limiter.record(in.UserID, slot, now)

	if e.round == nil {
		return betResp{err: crash.ErrNoActiveRound}
	}
	if e.round.State != crash.RoundStateWaiting {
		return betResp{err: crash.ErrBettingClosed}
	}
	if slot < 1 || slot > e.cfg.CurveCount {
		return betResp{err: crash.ErrInvalidSlot}
	}
	if e.book.get(in.UserID, slot) != nil {
		return betResp{err: crash.ErrDuplicateBet}
	}
	if !in.Amount.IsPositive() {
		return betResp{err: crash.ErrBelowMin}
	}
	if in.Amount.LessThan(decimal.NewFromFloat(e.cfg.MinBet)) {
		return betResp{err: crash.ErrBelowMin}
	}
	if in.Amount.GreaterThan(decimal.NewFromFloat(e.cfg.MaxBet)) {
		return betResp{err: crash.ErrAboveMax}
	}
	if in.AutoCashoutTarget != 0 && in.AutoCashoutTarget < 1.01 {
		return betResp{err: crash.ErrInvalidAutoTarget}
	}
	if !e.limiter.allowed(prevAttempt, now) {
		return betResp{err: crash.ErrRateLimited}
	}

	currency := in.Currency
	if currency == "" {
		currency = e.cfg.Currency
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.wallet.Debit(ctx, in.UserID, currency, in.Amount, string(crash.BalanceReasonBetPlaced)); err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) || errors.Is(err, wallet.ErrWalletNotFound) {
			return betResp{err: crash.ErrInsufficientFunds}
		}
		e.log.Error().Err(err).Str("user_id", in.UserID.String()).Msg("Wallet debit failed")
		return betResp{err: crash.ErrWalletUnavailable}
	}

	var nonce int64
	if e.pf != nil {
		if info, err := e.pf.BumpNonce(ctx, in.UserID); err != nil {
			e.log.Warn().Err(err).Str("user_id", in.UserID.String()).Msg("Failed to bump provably-fair nonce")
		} else {
			nonce = info.Nonce
		}
	}

	bet := &crash.Bet{
		ID:                uuid.New(),
		UserID:            in.UserID,
		Slot:              slot,
		Amount:            in.Amount,
		Currency:          currency,
		AutoCashoutTarget: in.AutoCashoutTarget,
		Status:            crash.BetStatusActive,
		VariantTag:        e.variant(),
		Nonce:             nonce,
		PlacedAt:          now,
	}
	e.book.insert(bet)

	e.bus.Publish(crash.Event{Type: crash.EventBetPlaced, BetPlaced: &crash.BetPlacedEvent{
		UserID:   bet.UserID,
		BetID:    bet.ID,
		Slot:     bet.Slot,
		Amount:   bet.Amount,
		Currency: bet.Currency,
	}})
	e.bus.Publish(crash.Event{Type: crash.EventBalanceUpdate, BalanceUpdate: &crash.BalanceUpdateEvent{
		UserID:   bet.UserID,
		Currency: bet.Currency,
		Delta:    bet.Amount.Neg(),
		Reason:   crash.BalanceReasonBetPlaced,
	}})

	return betResp{res: &crash.PlaceBetResult{
		BetID:          bet.ID,
		Slot:           bet.Slot,
		Amount:         bet.Amount,
		SequenceNumber: e.round.SequenceNumber,
	}}
}

// handleCashout services a manual cashout per the lateness rules: a claimed
// multiplier below 1.00 is rejected outright, one above the slot's crash
// point is TOO_LATE; otherwise the bet settles at min(claimed, current).
func (e *Engine) handleCashout(in crash.CashoutInput) cashoutResp {
	if e.round == nil {
		return cashoutResp{err: crash.ErrNoActiveRound}
	}
	if e.round.State != crash.RoundStateRunning {
		return cashoutResp{err: crash.ErrGameNotRunning}
	}
	slot := in.Slot
	if slot == 0 {
		slot = 1
	}
	if slot < 1 || slot > e.cfg.CurveCount {
		return cashoutResp{err: crash.ErrInvalidSlot}
	}
	c := &e.round.Curves[slot-1]
	if c.Crashed {
		return cashoutResp{err: crash.ErrCurveAlreadyCrashed}
	}
	bet := e.book.get(in.UserID, slot)
	if bet == nil {
		return cashoutResp{err: crash.ErrNoBet}
	}
	if bet.Status != crash.BetStatusActive {
		return cashoutResp{err: crash.ErrAlreadySettled}
	}

	m := in.ClaimedMultiplier
	if m == 0 {
		m = c.CurrentMultiplier
	}
	if m < 1.00 {
		// a payout below the stake can never be claimed
		return cashoutResp{err: crash.ErrInvalidMultiplier}
	}
	if m > c.CrashPoint {
		return cashoutResp{err: crash.ErrTooLate}
	}
	if m > c.CurrentMultiplier {
		m = c.CurrentMultiplier
	}

	payout, profit := e.settleCashout(bet, c, m, true)
	return cashoutResp{res: &crash.CashoutResult{
		BetID:      bet.ID,
		Slot:       bet.Slot,
		Multiplier: m,
		Payout:     payout,
		Profit:     profit,
	}}
}

// settleCashout marks a bet CASHED_OUT at multiplier m and emits the cashout
// event. The wallet credit runs off the actor goroutine so a slow wallet
// cannot stall the tick loop; the balance_update and the persisted record
// follow once the credit lands. A failed credit leaves the bet cashed out in
// memory, flags the record for reconciliation and logs at ERROR.
func (e *Engine) settleCashout(bet *crash.Bet, c *crash.Curve, m float64, manual bool) (payout, profit decimal.Decimal) {
	payout = bet.Amount.Mul(multiplierDecimal(m))
	profit = payout.Sub(bet.Amount)

	bet.Status = crash.BetStatusCashedOut
	bet.CashedOutAt = m
	bet.Profit = profit

	// built on the actor goroutine; the credit goroutine owns rec afterwards
	rec := e.settledRecord(bet, c)

	e.bus.Publish(crash.Event{Type: crash.EventCashout, Cashout: &crash.CashoutEvent{
		UserID:     bet.UserID,
		Slot:       bet.Slot,
		Multiplier: m,
		Profit:     profit,
		Manual:     manual,
	}})

	e.creditWG.Add(1)
	go func() {
		defer e.creditWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.wallet.Credit(ctx, rec.UserID, rec.Currency, payout, string(crash.BalanceReasonCashout)); err != nil {
			rec.WalletFlagged = true
			e.log.Error().
				Err(err).
				Str("user_id", rec.UserID.String()).
				Str("bet_id", rec.BetID.String()).
				Str("payout", payout.String()).
				Msg("Wallet credit failed; bet marked cashed out, record flagged for reconciliation")
		} else {
			e.bus.Publish(crash.Event{Type: crash.EventBalanceUpdate, BalanceUpdate: &crash.BalanceUpdateEvent{
				UserID:   rec.UserID,
				Currency: rec.Currency,
				Delta:    payout,
				Reason:   crash.BalanceReasonCashout,
			}})
		}
		e.persist.enqueueBet(rec)
	}()
	return payout, profit
}

// finalizeRound publishes crashed, appends the history ring entry, mirrors
// it, and queues the round archive.
func (e *Engine) finalizeRound() {
	points := make([]float64, len(e.round.Curves))
	for i, c := range e.round.Curves {
		points[i] = c.CrashPoint
	}

	e.bus.Publish(crash.Event{Type: crash.EventCrashed, Crashed: &crash.CrashedEvent{
		CrashPoints:    points,
		SequenceNumber: e.round.SequenceNumber,
	}})

	entry := crash.HistoryEntry{
		SequenceNumber: e.round.SequenceNumber,
		CrashPoints:    points,
		Commitment:     e.round.Commitment,
		ServerSeed:     e.round.ServerSeed,
		CrashedAt:      e.round.CrashedAt,
	}

	e.histMu.Lock()
	e.history = append([]crash.HistoryEntry{entry}, e.history...)
	if len(e.history) > e.cfg.MaxHistory {
		e.history = e.history[:e.cfg.MaxHistory]
	}
	e.histMu.Unlock()

	e.persist.pushHistory(entry, e.cfg.MaxHistory)

	var settled []crash.SettledBet
	e.book.forEach(func(bet *crash.Bet) {
		settled = append(settled, e.settledRecord(bet, &e.round.Curves[bet.Slot-1]))
	})
	e.persist.enqueueArchive(entry, settled)

	e.log.Info().
		Int64("sequence", e.round.SequenceNumber).
		Floats64("crash_points", points).
		Int("bets", e.book.len()).
		Msg("Round crashed")
}

func (e *Engine) settledRecord(bet *crash.Bet, c *crash.Curve) crash.SettledBet {
	payout := decimal.Zero
	if bet.Status == crash.BetStatusCashedOut {
		payout = bet.Amount.Mul(multiplierDecimal(bet.CashedOutAt))
	}
	return crash.SettledBet{
		BetID:             bet.ID,
		UserID:            bet.UserID,
		Variant:           bet.VariantTag,
		Currency:          bet.Currency,
		Slot:              bet.Slot,
		Amount:            bet.Amount,
		Multiplier:        bet.CashedOutAt,
		Payout:            payout,
		Profit:            bet.Profit,
		ServerSeed:        e.round.ServerSeed,
		Commitment:        e.round.Commitment,
		ClientSeed:        e.round.ClientSeed,
		Nonce:             bet.Nonce,
		SequenceNumber:    e.round.SequenceNumber,
		CrashPoint:        c.CrashPoint,
		AutoCashoutTarget: bet.AutoCashoutTarget,
		CashedOutAt:       bet.CashedOutAt,
		IsWin:             bet.Status == crash.BetStatusCashedOut,
		SettledAt:         time.Now(),
	}
}

func (e *Engine) variant() string {
	if e.cfg.CurveCount > 1 {
		return string(provablyfair.VariantDual)
	}
	return string(provablyfair.VariantSingle)
}

// publishState refreshes the snapshot view and emits state_change.
func (e *Engine) publishState() {
	view := e.buildView(0)
	e.view.Store(&view)
	e.bus.Publish(crash.Event{Type: crash.EventStateChange, StateChange: &crash.StateChangeEvent{
		State: e.round.State,
		View:  view,
	}})
}

// publishTick refreshes the snapshot view and emits tick.
func (e *Engine) publishTick(elapsed int64) {
	view := e.buildView(elapsed)
	e.view.Store(&view)

	mults := make([]float64, len(e.round.Curves))
	flags := make([]bool, len(e.round.Curves))
	for i, c := range e.round.Curves {
		mults[i] = c.CurrentMultiplier
		flags[i] = c.Crashed
	}
	e.bus.Publish(crash.Event{Type: crash.EventTick, Tick: &crash.TickEvent{
		Multipliers:  mults,
		ElapsedMs:    elapsed,
		CrashedFlags: flags,
	}})
}

// buildView produces the public round view. The server seed and crash points
// are never observable while the round has not crashed.
func (e *Engine) buildView(elapsed int64) crash.PublicView {
	v := crash.PublicView{
		RoundID:        e.round.ID,
		SequenceNumber: e.round.SequenceNumber,
		State:          e.round.State,
		Commitment:     e.round.Commitment,
		ClientSeed:     e.round.ClientSeed,
		ElapsedMs:      elapsed,
	}
	for _, c := range e.round.Curves {
		v.Multipliers = append(v.Multipliers, FormatMultiplier(c.CurrentMultiplier))
		v.CrashedFlags = append(v.CrashedFlags, c.Crashed)
	}
	if e.round.State == crash.RoundStateCrashed {
		v.ServerSeed = e.round.ServerSeed
		for _, c := range e.round.Curves {
			v.CrashPoints = append(v.CrashPoints, FormatMultiplier(c.CrashPoint))
		}
	}
	return v
}

// multiplierAt is the exact curve value at elapsed milliseconds, floored to
// two decimals.
func multiplierAt(elapsedMs int64) float64 {
	return math.Floor(math.Exp(growthK*float64(elapsedMs))*100) / 100
}

// multiplierDecimal converts a two-decimal multiplier to an exact decimal so
// the payout law holds without binary floating-point drift.
func multiplierDecimal(m float64) decimal.Decimal {
	d, err := decimal.NewFromString(strconv.FormatFloat(m, 'f', 2, 64))
	if err != nil {
		return decimal.NewFromFloat(m).Round(2)
	}
	return d
}

// FormatMultiplier renders a multiplier as a two-decimal wire string.
func FormatMultiplier(m float64) string {
	return strconv.FormatFloat(m, 'f', 2, 64)
}
