package engine

import (
	"context"
	"time"

	"github.com/crashgame/backend/domain/crash"
	"github.com/crashgame/backend/internal/pkg/logger"
)

// persister decouples the round actor from the durable store. Settled bets
// and round archives are queued and written by a background goroutine;
// failures are logged and never reach the round loop.
type persister struct {
	writer  crash.SettledBetWriter
	archive crash.RoundArchive
	history crash.HistoryStore
	log     *logger.Logger

	betCh     chan crash.SettledBet
	archiveCh chan archiveJob
	done      chan struct{}
}

type archiveJob struct {
	entry crash.HistoryEntry
	bets  []crash.SettledBet
}

func newPersister(writer crash.SettledBetWriter, archive crash.RoundArchive, history crash.HistoryStore, log *logger.Logger) *persister {
	return &persister{
		writer:    writer,
		archive:   archive,
		history:   history,
		log:       log,
		betCh:     make(chan crash.SettledBet, 4096),
		archiveCh: make(chan archiveJob, 64),
		done:      make(chan struct{}),
	}
}

func (p *persister) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case bet := <-p.betCh:
			p.writeBet(ctx, bet)
		case job := <-p.archiveCh:
			p.writeArchive(ctx, job)
		case <-ctx.Done():
			// drain what is already queued before exiting
			for {
				select {
				case bet := <-p.betCh:
					p.writeBet(context.Background(), bet)
				case job := <-p.archiveCh:
					p.writeArchive(context.Background(), job)
				default:
					return
				}
			}
		}
	}
}

// enqueueBet hands a settled bet off for persistence. Drops with a log entry
// when the queue is full; the write queue backing up must not stall a tick.
func (p *persister) enqueueBet(bet crash.SettledBet) {
	select {
	case p.betCh <- bet:
	default:
		p.log.Error().Str("bet_id", bet.BetID.String()).Msg("Persistence queue full, dropping settled bet write")
	}
}

func (p *persister) enqueueArchive(entry crash.HistoryEntry, bets []crash.SettledBet) {
	select {
	case p.archiveCh <- archiveJob{entry: entry, bets: bets}:
	default:
		p.log.Error().Int64("sequence", entry.SequenceNumber).Msg("Archive queue full, dropping round archive")
	}
}

func (p *persister) pushHistory(entry crash.HistoryEntry, max int) {
	if p.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.history.PushHistory(ctx, entry, max); err != nil {
		p.log.Warn().Err(err).Msg("Failed to mirror crash history")
	}
}

func (p *persister) writeBet(ctx context.Context, bet crash.SettledBet) {
	if p.writer == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.writer.CreateSettledBet(wctx, &bet); err != nil {
		p.log.Error().Err(err).Str("bet_id", bet.BetID.String()).Msg("Failed to persist settled bet")
	}
}

func (p *persister) writeArchive(ctx context.Context, job archiveJob) {
	if p.archive == nil {
		return
	}
	actx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.archive.ArchiveRound(actx, job.entry, job.bets); err != nil {
		p.log.Error().Err(err).Int64("sequence", job.entry.SequenceNumber).Msg("Failed to archive round")
	}
}
