// Package lobby drives the lifecycle of one Clash of Code lobby per command
// invocation: validate the request, create the lobby, publish its join link,
// poll until a second player arrives, then remove the bot so the humans play
// unsupervised. Each invocation owns its state exclusively; invocations never
// synchronize with each other.
package lobby

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cocbot/clashbot/catalog"
	"github.com/cocbot/clashbot/telemetry"
)

// RemoteClient is the subset of the CodinGame client the orchestrator uses.
type RemoteClient interface {
	CreateClash(ctx context.Context, modes, languages []string) (string, error)
	PlayerCount(ctx context.Context, handle string) (int, error)
	LeaveClash(ctx context.Context, handle string) error
}

// Publisher delivers the single user-facing message of an invocation. Publish
// sets (or replaces) the message text; Delete removes it.
type Publisher interface {
	Publish(ctx context.Context, text string) error
	Delete(ctx context.Context) error
}

// Request is one validated-later command invocation.
type Request struct {
	ModeInput     string
	LanguageInput string
	Requester     string // platform mention of the invoking user, may be empty
}

// Outcome is the terminal state of an invocation.
type Outcome int

const (
	// OutcomeRejected means validation failed; no remote call was made.
	OutcomeRejected Outcome = iota
	// OutcomeFailed means the remote create call failed.
	OutcomeFailed
	// OutcomeDone means a second player joined and the bot left the lobby.
	OutcomeDone
	// OutcomeTimedOut means the opt-in poll timeout elapsed first.
	OutcomeTimedOut
)

// Orchestrator runs lobby lifecycles. One value serves all invocations; the
// catalogs and client are read-only after construction.
type Orchestrator struct {
	Client    RemoteClient
	Modes     *catalog.Catalog
	Languages *catalog.Catalog

	PollInterval time.Duration
	// PollTimeout caps the join-detection loop. Zero preserves the upstream
	// behavior of polling until a second player joins, however long that takes.
	PollTimeout time.Duration
	MessageTTL  time.Duration
	RejectTTL   time.Duration

	// Active, when set, tracks lobbies currently waiting for a second player
	// (exposed by the status endpoint).
	Active *atomic.Int64
}

// Launch validates, creates and publishes synchronously, then spawns the
// join-detection loop and the message-deletion timer as independent
// goroutines. The returned channel receives the terminal outcome; it is
// buffered and nobody is required to read it.
func (o *Orchestrator) Launch(ctx context.Context, req Request, pub Publisher) <-chan Outcome {
	out := make(chan Outcome, 1)
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	log := telemetry.LoggerWithCorr(ctx)

	mode, modeOK := o.Modes.Resolve(req.ModeInput)
	language, langOK := o.Languages.Resolve(req.LanguageInput)
	if !modeOK || !langOK {
		if telemetry.ValidationRejections != nil {
			telemetry.ValidationRejections.Inc()
		}
		log.Info("request rejected",
			slog.String("mode_input", req.ModeInput),
			slog.String("language_input", req.LanguageInput),
			slog.Bool("mode_ok", modeOK))
		o.publish(ctx, pub, RenderRejection(req, modeOK, langOK), o.RejectTTL)
		out <- OutcomeRejected
		return out
	}

	spanCtx, span := telemetry.StartSpan(ctx, "lobby", "create_clash",
		attribute.String("mode", mode), attribute.String("language", language))
	handle, err := o.Client.CreateClash(spanCtx,
		catalog.ExpandModes(mode, o.Modes), catalog.ExpandLanguage(language))
	if err != nil {
		telemetry.RecordError(span, err)
		span.End()
		if telemetry.ClashCreateFailures != nil {
			telemetry.ClashCreateFailures.Inc()
		}
		log.Warn("clash creation failed", slog.Any("err", err))
		o.publish(ctx, pub, RenderUnavailable(), o.RejectTTL)
		out <- OutcomeFailed
		return out
	}
	telemetry.SetSpanSuccess(span)
	span.End()
	if telemetry.ClashesCreated != nil {
		telemetry.ClashesCreated.Inc()
	}
	log.Info("clash created", slog.String("handle", handle),
		slog.String("mode", mode), slog.String("language", language))

	// The message is published before the loops start; everything after this
	// point is best-effort because the join link is already user-visible.
	o.publish(ctx, pub, RenderSuccess(mode, language, req.Requester, handle), o.MessageTTL)

	go o.awaitSecondPlayer(ctx, handle, out)
	return out
}

// publish writes text and schedules its deletion after ttl. Failures on
// either side are logged, never escalated.
func (o *Orchestrator) publish(ctx context.Context, pub Publisher, text string, ttl time.Duration) {
	log := telemetry.LoggerWithCorr(ctx)
	if err := pub.Publish(ctx, text); err != nil {
		log.Warn("publish failed", slog.Any("err", err))
		return
	}
	go func() {
		select {
		case <-time.After(ttl):
		case <-ctx.Done():
			return
		}
		if err := pub.Delete(ctx); err != nil {
			log.Debug("message delete failed", slog.Any("err", err))
		}
	}()
}

// awaitSecondPlayer polls the participant count on a fixed interval until it
// exceeds one, then issues exactly one leave call. Each poll is independent;
// a failed poll is retried on the next tick, never escalated.
func (o *Orchestrator) awaitSecondPlayer(ctx context.Context, handle string, out chan<- Outcome) {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("handle", handle))
	if o.Active != nil {
		o.Active.Add(1)
		defer o.Active.Add(-1)
	}
	if telemetry.AwaitingPlayerGauge != nil {
		telemetry.AwaitingPlayerGauge.Inc()
		defer telemetry.AwaitingPlayerGauge.Dec()
	}

	var deadline <-chan time.Time
	if o.PollTimeout > 0 {
		timer := time.NewTimer(o.PollTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	start := time.Now()
	ticker := time.NewTicker(o.PollInterval)
	defer ticker.Stop()
	for {
		if telemetry.PollsTotal != nil {
			telemetry.PollsTotal.Inc()
		}
		count, err := o.Client.PlayerCount(ctx, handle)
		if err != nil {
			log.Debug("player count poll failed", slog.Any("err", err))
		} else if count > 1 {
			o.leave(ctx, handle, time.Since(start))
			out <- OutcomeDone
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			log.Info("gave up waiting for a second player",
				slog.Duration("after", o.PollTimeout))
			out <- OutcomeTimedOut
			return
		case <-ticker.C:
		}
	}
}

// leave removes the bot from the lobby, at most once per created lobby.
// Failures are absorbed and surfaced only through the log and counter.
func (o *Orchestrator) leave(ctx context.Context, handle string, waited time.Duration) {
	log := telemetry.LoggerWithCorr(ctx)
	if telemetry.TimeToSecondPlayer != nil {
		telemetry.TimeToSecondPlayer.Observe(waited.Seconds())
	}
	if err := o.Client.LeaveClash(ctx, handle); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if telemetry.LeaveFailures != nil {
			telemetry.LeaveFailures.Inc()
		}
		log.Warn("failed to leave clash", slog.String("handle", handle), slog.Any("err", err))
		return
	}
	if telemetry.LeavesSucceeded != nil {
		telemetry.LeavesSucceeded.Inc()
	}
	log.Info("left clash after second player joined",
		slog.String("handle", handle), slog.Duration("waited", waited))
}
