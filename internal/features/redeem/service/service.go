package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tonaddress "github.com/xssnick/tonutils-go/address"

	apperrors "escrow-giveaway-bot/internal/common/errors"
	"escrow-giveaway-bot/internal/features/redeem/codegen"
	"escrow-giveaway-bot/internal/ledger"
)

// Notifier is the outbound-messaging collaborator of the reconciler.
// Deliveries are best-effort; failures are logged by the implementation.
type Notifier interface {
	// NotifyOwnerWithdrawRequest sends the owner the full request details
	// with approve/reject affordances.
	NotifyOwnerWithdrawRequest(wr ledger.WithdrawRequest)

	// SendClaimedCode DMs a user their claimed code with a withdraw
	// affordance.
	SendClaimedCode(userID int64, code string)

	// NotifyUser sends a plain direct message.
	NotifyUser(userID int64, text string)
}

// Service reconciles redeem codes against withdraw requests: a code moves
// unused → withdraw_pending when a request is filed, then to paid on
// approval or back to unused on rejection.
type Service struct {
	store    *ledger.Store
	notify   Notifier
	sessions *sessionTable
	ownerID  int64
	log      zerolog.Logger
}

func NewService(store *ledger.Store, notify Notifier, ownerID int64, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notify:   notify,
		sessions: newSessionTable(),
		ownerID:  ownerID,
		log:      log,
	}
}

// CreateCodes generates a batch of unassigned codes. The count is clamped
// to the allowed batch range rather than rejected.
func (s *Service) CreateCodes(userID int64, amount string, count int, giveawayID string) ([]string, error) {
	if userID != s.ownerID {
		return nil, apperrors.NewUnauthorizedError("owner only")
	}
	if count < ledger.MinCodesPerBatch {
		count = ledger.MinCodesPerBatch
	}
	if count > ledger.MaxCodesPerBatch {
		count = ledger.MaxCodesPerBatch
	}

	created := make([]string, 0, count)
	err := s.store.Update(func(l *ledger.Ledger) error {
		for i := 0; i < count; i++ {
			code, err := codegen.Unique(func(c string) bool {
				_, taken := l.Redeems[c]
				return taken
			})
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeInternal, "code generation failed")
			}
			l.Redeems[code] = &ledger.RedeemCode{
				Code:       code,
				Amount:     amount,
				CreatedBy:  userID,
				CreatedAt:  time.Now(),
				GiveawayID: giveawayID,
				Status:     ledger.CodeUnused,
			}
			created = append(created, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("count", len(created)).Str("amount", amount).Msg("redeem codes created")
	return created, nil
}

// Claim assigns an unused code to the first redeemer. Claiming is not
// spending: the status stays unused until a withdrawal is filed.
func (s *Service) Claim(userID int64, code string) error {
	err := s.store.Update(func(l *ledger.Ledger) error {
		r, ok := l.Redeems[code]
		if !ok {
			return apperrors.New(apperrors.ErrCodeNotFound, "Invalid code.")
		}
		if r.Status != ledger.CodeUnused {
			return apperrors.New(apperrors.ErrCodeAlreadyUsed, "This code is already used or pending.")
		}
		r.GivenTo = userID
		return nil
	})
	if err != nil {
		return err
	}

	s.notify.SendClaimedCode(userID, code)
	s.log.Debug().Str("code", code).Int64("user_id", userID).Msg("code claimed")
	return nil
}

// InitiateWithdraw validates that the user may withdraw the code and
// returns its details for the method prompt. The method choice follows as
// a separate step.
func (s *Service) InitiateWithdraw(userID int64, code string) (ledger.RedeemCode, error) {
	var (
		snapshot ledger.RedeemCode
		found    bool
	)
	s.store.View(func(l *ledger.Ledger) {
		if r, ok := l.Redeems[code]; ok {
			snapshot = *r
			found = true
		}
	})
	if !found {
		return ledger.RedeemCode{}, apperrors.New(apperrors.ErrCodeNotFound, "Invalid code.")
	}
	if snapshot.GivenTo != 0 && snapshot.GivenTo != userID {
		return ledger.RedeemCode{}, apperrors.NewUnauthorizedError("This code is not yours.")
	}
	switch snapshot.Status {
	case ledger.CodeWithdrawPending:
		return ledger.RedeemCode{}, apperrors.New(apperrors.ErrCodeInvalidTransition, "A withdraw request for this code is already pending.")
	case ledger.CodePaid:
		return ledger.RedeemCode{}, apperrors.New(apperrors.ErrCodeAlreadyUsed, "This code has already been paid out.")
	}
	return snapshot, nil
}

// ChooseMethod opens a withdraw session for the user, to be completed by
// an address submission.
func (s *Service) ChooseMethod(userID int64, code string, method ledger.PayoutMethod) error {
	if !method.Valid() {
		return apperrors.NewValidationError("method", "unknown payout method")
	}
	if _, err := s.InitiateWithdraw(userID, code); err != nil {
		return err
	}
	s.sessions.set(userID, withdrawSession{Code: code, Method: method})
	return nil
}

// HasSession reports whether the user has an open withdraw session.
func (s *Service) HasSession(userID int64) bool {
	_, ok := s.sessions.get(userID)
	return ok
}

// SubmitAddress consumes the open session and files the withdraw request:
// the code flips to withdraw_pending, the request links back to it, and
// the owner is notified with an approve/reject affordance.
func (s *Service) SubmitAddress(userID int64, address string) (ledger.WithdrawRequest, error) {
	sess, ok := s.sessions.get(userID)
	if !ok {
		return ledger.WithdrawRequest{}, apperrors.New(apperrors.ErrCodeSessionExpired, "Session expired or invalid code.")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return ledger.WithdrawRequest{}, apperrors.NewValidationError("address", "must not be empty")
	}
	if sess.Method == ledger.MethodUSDTTON {
		if err := validateTONAddress(address); err != nil {
			return ledger.WithdrawRequest{}, apperrors.NewValidationError("address", "not a valid TON address")
		}
	}

	var request ledger.WithdrawRequest
	err := s.store.Update(func(l *ledger.Ledger) error {
		r, ok := l.Redeems[sess.Code]
		if !ok {
			s.sessions.clear(userID)
			return apperrors.New(apperrors.ErrCodeSessionExpired, "Session expired or invalid code.")
		}
		if r.Status == ledger.CodeWithdrawPending {
			s.sessions.clear(userID)
			return apperrors.New(apperrors.ErrCodeInvalidTransition, "A withdraw request for this code is already pending.")
		}
		if r.Status == ledger.CodePaid {
			s.sessions.clear(userID)
			return apperrors.New(apperrors.ErrCodeAlreadyUsed, "This code has already been paid out.")
		}

		wr := &ledger.WithdrawRequest{
			ID:        newRequestID(),
			Code:      sess.Code,
			UserID:    userID,
			Amount:    r.Amount,
			Method:    sess.Method,
			Address:   address,
			Status:    ledger.RequestPending,
			CreatedAt: time.Now(),
		}
		l.Withdraws[wr.ID] = wr
		r.Status = ledger.CodeWithdrawPending
		r.WithdrawRequestID = wr.ID
		request = *wr
		return nil
	})
	if err != nil {
		return ledger.WithdrawRequest{}, err
	}

	s.sessions.clear(userID)
	s.notify.NotifyOwnerWithdrawRequest(request)
	s.log.Info().Str("request_id", request.ID).Str("code", request.Code).Str("method", string(request.Method)).Msg("withdraw request filed")
	return request, nil
}

// Approve marks a pending request approved and its code paid.
func (s *Service) Approve(userID int64, requestID string) (ledger.WithdrawRequest, error) {
	wr, err := s.resolve(userID, requestID, func(wr *ledger.WithdrawRequest, r *ledger.RedeemCode) {
		wr.Status = ledger.RequestApproved
		wr.ResolvedAt = time.Now()
		if r != nil {
			r.Status = ledger.CodePaid
			r.UsedAt = time.Now()
		}
	})
	if err != nil {
		return ledger.WithdrawRequest{}, err
	}

	s.notify.NotifyUser(wr.UserID, fmt.Sprintf("✅ Your withdraw request %s has been approved by the Owner. They will send the funds shortly.", wr.ID))
	s.log.Info().Str("request_id", wr.ID).Msg("withdraw request approved")
	return wr, nil
}

// Reject marks a pending request rejected and returns its code to unused
// with the request link cleared, so the code is withdrawable again.
func (s *Service) Reject(userID int64, requestID string) (ledger.WithdrawRequest, error) {
	wr, err := s.resolve(userID, requestID, func(wr *ledger.WithdrawRequest, r *ledger.RedeemCode) {
		wr.Status = ledger.RequestRejected
		wr.ResolvedAt = time.Now()
		if r != nil {
			r.Status = ledger.CodeUnused
			r.WithdrawRequestID = ""
			r.UsedAt = time.Time{}
		}
	})
	if err != nil {
		return ledger.WithdrawRequest{}, err
	}

	s.notify.NotifyUser(wr.UserID, fmt.Sprintf("❌ Your withdraw request %s was rejected by the Owner. Please contact the owner for details.", wr.ID))
	s.log.Info().Str("request_id", wr.ID).Msg("withdraw request rejected")
	return wr, nil
}

// resolve applies an owner decision to a pending request and its code.
func (s *Service) resolve(userID int64, requestID string, apply func(wr *ledger.WithdrawRequest, r *ledger.RedeemCode)) (ledger.WithdrawRequest, error) {
	if userID != s.ownerID {
		return ledger.WithdrawRequest{}, apperrors.NewUnauthorizedError("owner only")
	}

	var result ledger.WithdrawRequest
	err := s.store.Update(func(l *ledger.Ledger) error {
		wr, ok := l.Withdraws[requestID]
		if !ok {
			return apperrors.New(apperrors.ErrCodeNotFound, "Request not found")
		}
		if wr.Status != ledger.RequestPending {
			return apperrors.New(apperrors.ErrCodeInvalidTransition, "Request not pending")
		}
		apply(wr, l.Redeems[wr.Code])
		result = *wr
		return nil
	})
	if err != nil {
		return ledger.WithdrawRequest{}, err
	}
	return result, nil
}

// MyCodes returns every code claimed by or assigned to the user.
func (s *Service) MyCodes(userID int64) []ledger.RedeemCode {
	var out []ledger.RedeemCode
	s.store.View(func(l *ledger.Ledger) {
		for _, r := range l.Redeems {
			if r.GivenTo == userID || r.AssignedTo == userID {
				out = append(out, *r)
			}
		}
	})
	return out
}

// CodeExists reports whether a code is known to the ledger.
func (s *Service) CodeExists(code string) bool {
	var ok bool
	s.store.View(func(l *ledger.Ledger) {
		_, ok = l.Redeems[code]
	})
	return ok
}

// ListCodes returns up to limit codes for the owner panel.
func (s *Service) ListCodes(limit int) []ledger.RedeemCode {
	var out []ledger.RedeemCode
	s.store.View(func(l *ledger.Ledger) {
		for _, r := range l.Redeems {
			out = append(out, *r)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	})
	return out
}

// ListWithdraws returns up to limit withdraw requests for the owner panel.
func (s *Service) ListWithdraws(limit int) []ledger.WithdrawRequest {
	var out []ledger.WithdrawRequest
	s.store.View(func(l *ledger.Ledger) {
		for _, wr := range l.Withdraws {
			out = append(out, *wr)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	})
	return out
}

// GetWithdraw returns a withdraw request by id.
func (s *Service) GetWithdraw(requestID string) (ledger.WithdrawRequest, error) {
	var (
		out   ledger.WithdrawRequest
		found bool
	)
	s.store.View(func(l *ledger.Ledger) {
		if wr, ok := l.Withdraws[requestID]; ok {
			out = *wr
			found = true
		}
	})
	if !found {
		return ledger.WithdrawRequest{}, apperrors.New(apperrors.ErrCodeNotFound, "Request not found")
	}
	return out, nil
}

func newRequestID() string {
	return "WR-" + strings.ToUpper(uuid.New().String()[:8])
}

// validateTONAddress accepts user-friendly and raw TON address forms.
func validateTONAddress(addr string) error {
	if _, err := tonaddress.ParseAddr(addr); err == nil {
		return nil
	}
	_, err := tonaddress.ParseRawAddr(addr)
	return err
}
