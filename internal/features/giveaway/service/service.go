package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/features/redeem/codegen"
	"escrow-giveaway-bot/internal/ledger"
	"escrow-giveaway-bot/internal/utils/random"
)

// Service owns the giveaway state machine: draft on creation, active once
// the owner picks a selection mode, ended by the expiry timer or the
// owner. Winner selection issues one pre-assigned redeem code per winner.
type Service struct {
	store       *ledger.Store
	eligibility *EligibilityChecker
	notify      Notifier
	sched       *Scheduler
	ownerID     int64
	log         zerolog.Logger
}

func NewService(store *ledger.Store, profile ProfileLookup, notify Notifier, ownerID int64, log zerolog.Logger) *Service {
	return &Service{
		store:       store,
		eligibility: NewEligibilityChecker(profile, log),
		notify:      notify,
		sched:       NewScheduler(),
		ownerID:     ownerID,
		log:         log,
	}
}

// Scheduler exposes the timer table, mainly for shutdown.
func (s *Service) Scheduler() *Scheduler {
	return s.sched
}

// Create records a draft giveaway. The id is owner-chosen and must be
// unique; the end time must be strictly in the future; the winner count
// is fixed at creation.
func (s *Service) Create(createdBy int64, id, prize string, endsAt time.Time, winnersCount int) (*ledger.Giveaway, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id", "must not be empty")
	}
	if winnersCount < ledger.MinWinners || winnersCount > ledger.MaxWinners {
		return nil, apperrors.NewValidationError("winners",
			fmt.Sprintf("must be between %d and %d", ledger.MinWinners, ledger.MaxWinners))
	}
	if !endsAt.After(time.Now()) {
		return nil, apperrors.NewValidationError("end", "must be in the future")
	}

	var created *ledger.Giveaway
	err := s.store.Update(func(l *ledger.Ledger) error {
		if _, exists := l.Giveaways[id]; exists {
			return apperrors.NewValidationError("id", fmt.Sprintf("giveaway %s already exists", id))
		}
		created = &ledger.Giveaway{
			ID:           id,
			Prize:        prize,
			WinnersCount: winnersCount,
			CreatedAt:    time.Now(),
			CreatedBy:    createdBy,
			EndsAt:       endsAt,
			Participants: []int64{},
			Posted:       []ledger.PostedMessage{},
			Winners:      []int64{},
		}
		l.Giveaways[id] = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("giveaway_id", id).Str("prize", prize).Int("winners", winnersCount).Msg("giveaway draft created")
	return created, nil
}

// Activate sets the selection mode on a draft, posts the announcement and
// schedules the expiry. Pin failures are non-fatal; an already elapsed
// deadline fires near-immediately, which covers restart recovery.
func (s *Service) Activate(userID int64, id string, mode ledger.SelectionMode, fallbackChatID int64) error {
	if userID != s.ownerID {
		return apperrors.NewUnauthorizedError("owner only")
	}
	if mode != ledger.ModeAuto && mode != ledger.ModeManual {
		return apperrors.NewValidationError("mode", "must be auto or manual")
	}

	var snapshot ledger.Giveaway
	err := s.store.Update(func(l *ledger.Ledger) error {
		g, ok := l.Giveaways[id]
		if !ok {
			return apperrors.NewNotFoundError("giveaway", id)
		}
		if !g.IsDraft() {
			return apperrors.New(apperrors.ErrCodeInvalidTransition, "giveaway is not a draft")
		}
		g.Mode = mode
		snapshot = cloneGiveaway(g)
		return nil
	})
	if err != nil {
		return err
	}

	posted := s.notify.PostAnnouncement(snapshot, fallbackChatID)
	if len(posted) > 0 {
		_ = s.store.Update(func(l *ledger.Ledger) error {
			if g, ok := l.Giveaways[id]; ok {
				g.Posted = append(g.Posted, posted...)
			}
			return nil
		})
	}

	s.scheduleExpiry(id, snapshot.EndsAt)
	s.log.Info().Str("giveaway_id", id).Str("mode", string(mode)).Int("posts", len(posted)).Msg("giveaway activated")
	return nil
}

// Join adds a participant. Every failure here is a user-facing rejection,
// not a system error: the caller surfaces the error message and moves on.
func (s *Service) Join(userID int64, id string) error {
	var (
		keyword string
		popups  []string
		missing bool
		ended   bool
	)
	s.store.View(func(l *ledger.Ledger) {
		keyword = l.Settings.RequiredBioKeyword
		popups = l.Settings.PopupMessages
		g, ok := l.Giveaways[id]
		if !ok {
			missing = true
			return
		}
		ended = g.Ended
	})
	if missing {
		return apperrors.NewNotFoundError("giveaway", id)
	}
	if ended {
		return apperrors.New(apperrors.ErrCodeInvalidTransition, "This giveaway has ended.")
	}

	if !s.eligibility.IsEligible(userID, keyword) {
		return apperrors.New(apperrors.ErrCodeNotEligible, pickPopup(popups, keyword))
	}

	var snapshot ledger.Giveaway
	err := s.store.Update(func(l *ledger.Ledger) error {
		g, ok := l.Giveaways[id]
		if !ok {
			return apperrors.NewNotFoundError("giveaway", id)
		}
		if g.Ended {
			return apperrors.New(apperrors.ErrCodeInvalidTransition, "This giveaway has ended.")
		}
		if g.HasParticipant(userID) {
			return apperrors.New(apperrors.ErrCodeAlreadyJoined, "You are already in, relax… prize is not running away 😑")
		}
		g.Participants = append(g.Participants, userID)
		snapshot = cloneGiveaway(g)
		return nil
	})
	if err != nil {
		return err
	}

	s.notify.RefreshParticipantCount(snapshot)
	s.log.Debug().Str("giveaway_id", id).Int64("user_id", userID).Int("participants", len(snapshot.Participants)).Msg("participant joined")
	return nil
}

// End finishes a giveaway. Idempotent: a second call on an ended giveaway
// is a silent no-op with no side effects. Auto mode draws min(winners,
// participants) distinct winners and issues their codes; manual mode asks
// the owner to pick.
func (s *Service) End(id, reason string) error {
	type issued struct {
		userID int64
		code   string
	}
	var (
		alreadyEnded bool
		snapshot     ledger.Giveaway
		codes        []issued
	)

	err := s.store.Update(func(l *ledger.Ledger) error {
		g, ok := l.Giveaways[id]
		if !ok {
			return apperrors.NewNotFoundError("giveaway", id)
		}
		if g.Ended {
			alreadyEnded = true
			return nil
		}
		g.Ended = true
		g.EndedAt = time.Now()

		if len(g.Participants) > 0 && g.Mode == ledger.ModeAuto {
			count := g.WinnersCount
			if count > len(g.Participants) {
				count = len(g.Participants)
			}
			winners, err := random.Sample(g.Participants, count)
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "winner draw failed")
			}
			g.Winners = winners
			for _, uid := range winners {
				code, err := s.issueCode(l, g, uid)
				if err != nil {
					return err
				}
				codes = append(codes, issued{userID: uid, code: code})
			}
		}
		snapshot = cloneGiveaway(g)
		return nil
	})
	if err != nil || alreadyEnded {
		return err
	}

	s.sched.Cancel(id)
	s.log.Info().Str("giveaway_id", id).Str("reason", reason).Int("participants", len(snapshot.Participants)).Msg("giveaway ended")

	switch {
	case len(snapshot.Participants) == 0:
		s.notify.AnnounceNoParticipants(snapshot)
	case snapshot.Mode == ledger.ModeAuto:
		mentions := make([]string, 0, len(codes))
		for _, iss := range codes {
			if label, lerr := s.notify.ResolveDisplayName(iss.userID); lerr == nil {
				mentions = append(mentions, label)
			}
			if derr := s.notify.SendWinnerCode(iss.userID, snapshot, iss.code); derr != nil {
				s.notify.NotifyOwner(fmt.Sprintf("⚠️ Could not DM winner ID %d for giveaway %s. Code: %s", iss.userID, id, iss.code))
			}
		}
		s.notify.AnnounceWinners(snapshot, mentions, reason)
	default:
		s.notify.NotifyOwner(fmt.Sprintf("🔔 Giveaway %s has ended and requires manual winner selection.\nUse:\n/pickwinners %s <user_id1> [user_id2 ...]", id, id))
		s.notify.AnnounceManualPending(snapshot)
	}
	return nil
}

// PickWinners is the owner's manual override. It forces the giveaway to
// ended and issues codes for the given ids. It deliberately does not
// check the prior ended flag, so the owner can overwrite an
// already-decided giveaway's winners.
func (s *Service) PickWinners(userID int64, id string, winnerIDs []int64) error {
	if userID != s.ownerID {
		return apperrors.NewUnauthorizedError("owner only")
	}
	if len(winnerIDs) == 0 {
		return apperrors.NewValidationError("winners", "provide at least one user id")
	}

	type issued struct {
		userID int64
		code   string
	}
	var (
		snapshot ledger.Giveaway
		codes    []issued
	)
	err := s.store.Update(func(l *ledger.Ledger) error {
		g, ok := l.Giveaways[id]
		if !ok {
			return apperrors.NewNotFoundError("giveaway", id)
		}
		g.Winners = append([]int64{}, winnerIDs...)
		g.Ended = true
		g.EndedAt = time.Now()
		for _, uid := range winnerIDs {
			code, err := s.issueCode(l, g, uid)
			if err != nil {
				return err
			}
			codes = append(codes, issued{userID: uid, code: code})
		}
		snapshot = cloneGiveaway(g)
		return nil
	})
	if err != nil {
		return err
	}

	s.sched.Cancel(id)
	for _, iss := range codes {
		if derr := s.notify.SendWinnerCode(iss.userID, snapshot, iss.code); derr != nil {
			s.notify.NotifyOwner(fmt.Sprintf("Could not DM user %d with code %s.", iss.userID, iss.code))
		}
	}
	s.notify.AnnounceManualSelected(snapshot)
	s.log.Info().Str("giveaway_id", id).Ints64("winners", winnerIDs).Msg("winners picked manually")
	return nil
}

// Get returns a read-only copy of a giveaway.
func (s *Service) Get(id string) (ledger.Giveaway, error) {
	var (
		snapshot ledger.Giveaway
		found    bool
	)
	s.store.View(func(l *ledger.Ledger) {
		if g, ok := l.Giveaways[id]; ok {
			snapshot = cloneGiveaway(g)
			found = true
		}
	})
	if !found {
		return ledger.Giveaway{}, apperrors.NewNotFoundError("giveaway", id)
	}
	return snapshot, nil
}

// List returns read-only copies of every giveaway.
func (s *Service) List() []ledger.Giveaway {
	var out []ledger.Giveaway
	s.store.View(func(l *ledger.Ledger) {
		for _, g := range l.Giveaways {
			out = append(out, cloneGiveaway(g))
		}
	})
	return out
}

// RearmTimers re-installs expiry timers for every unended giveaway after
// a restart. Giveaways whose stored deadline already passed end right
// away with a startup reason.
func (s *Service) RearmTimers() {
	type pending struct {
		id     string
		endsAt time.Time
	}
	var toArm []pending
	s.store.View(func(l *ledger.Ledger) {
		for id, g := range l.Giveaways {
			if !g.Ended && !g.IsDraft() {
				toArm = append(toArm, pending{id: id, endsAt: g.EndsAt})
			}
		}
	})

	for _, p := range toArm {
		reason := "auto"
		if !p.endsAt.After(time.Now()) {
			reason = "scheduled-startup"
		}
		id, why := p.id, reason
		s.sched.Arm(id, p.endsAt, func() {
			if err := s.End(id, why); err != nil {
				s.log.Error().Err(err).Str("giveaway_id", id).Msg("scheduled end failed")
			}
		})
	}
	if len(toArm) > 0 {
		s.log.Info().Int("count", len(toArm)).Msg("expiry timers re-armed")
	}
}

func (s *Service) scheduleExpiry(id string, at time.Time) {
	s.sched.Arm(id, at, func() {
		if err := s.End(id, "auto"); err != nil {
			s.log.Error().Err(err).Str("giveaway_id", id).Msg("scheduled end failed")
		}
	})
}

// issueCode creates one unused redeem code pre-assigned to a winner.
// Runs inside a store update; the uniqueness check covers every code the
// ledger has ever issued.
func (s *Service) issueCode(l *ledger.Ledger, g *ledger.Giveaway, userID int64) (string, error) {
	code, err := codegen.Unique(func(c string) bool {
		_, taken := l.Redeems[c]
		return taken
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "code generation failed")
	}
	l.Redeems[code] = &ledger.RedeemCode{
		Code:       code,
		Amount:     g.Prize,
		CreatedBy:  s.ownerID,
		CreatedAt:  time.Now(),
		GiveawayID: g.ID,
		AssignedTo: userID,
		GivenTo:    userID,
		Status:     ledger.CodeUnused,
	}
	return code, nil
}

func pickPopup(popups []string, keyword string) string {
	if len(popups) == 0 {
		return fmt.Sprintf("Add %s to your bio to participate.", keyword)
	}
	idx, err := random.Intn(len(popups))
	if err != nil {
		idx = 0
	}
	return popups[idx]
}

func cloneGiveaway(g *ledger.Giveaway) ledger.Giveaway {
	out := *g
	out.Participants = append([]int64{}, g.Participants...)
	out.Posted = append([]ledger.PostedMessage{}, g.Posted...)
	out.Winners = append([]int64{}, g.Winners...)
	return out
}
