package ledger

import "time"

// SelectionMode determines how winners are picked when a giveaway ends.
type SelectionMode string

const (
	ModeAuto   SelectionMode = "auto"
	ModeManual SelectionMode = "manual"
)

const (
	MinWinners = 1
	MaxWinners = 50

	MinCodesPerBatch = 1
	MaxCodesPerBatch = 500
)

// PostedMessage references one published giveaway announcement.
type PostedMessage struct {
	ChatID    int64 `json:"group_id"`
	MessageID int   `json:"message_id"`
}

// Giveaway is a single giveaway record. Once Ended is set the record is
// immutable except for being referenced by the redeem codes it produced;
// the only sanctioned exception is the owner's manual winner override.
type Giveaway struct {
	ID           string          `json:"id"`
	Prize        string          `json:"amount"`
	WinnersCount int             `json:"no_of_winners"`
	CreatedAt    time.Time       `json:"created_at"`
	CreatedBy    int64           `json:"created_by"`
	EndsAt       time.Time       `json:"end"`
	Mode         SelectionMode   `json:"mode,omitempty"`
	Participants []int64         `json:"participants"`
	Posted       []PostedMessage `json:"posted"`
	Winners      []int64         `json:"winners"`
	Ended        bool            `json:"ended"`
	EndedAt      time.Time       `json:"ended_at,omitempty"`
}

// IsDraft reports whether the giveaway has been created but not activated.
func (g *Giveaway) IsDraft() bool {
	return g.Mode == "" && !g.Ended
}

// HasParticipant reports whether uid already joined.
func (g *Giveaway) HasParticipant(uid int64) bool {
	for _, p := range g.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// CodeStatus tracks a redeem code through the payout pipeline.
type CodeStatus string

const (
	CodeUnused          CodeStatus = "unused"
	CodeWithdrawPending CodeStatus = "withdraw_pending"
	CodePaid            CodeStatus = "paid"
)

// RedeemCode is a prize code. A claimed code keeps status "unused" until a
// withdraw request is filed; GivenTo records who may spend it.
type RedeemCode struct {
	Code              string     `json:"code"`
	Amount            string     `json:"amount"`
	CreatedBy         int64      `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	GiveawayID        string     `json:"giveaway_id,omitempty"`
	AssignedTo        int64      `json:"assigned_to,omitempty"`
	GivenTo           int64      `json:"given_to,omitempty"`
	Status            CodeStatus `json:"status"`
	WithdrawRequestID string     `json:"withdraw_request_id,omitempty"`
	UsedAt            time.Time  `json:"used_at,omitempty"`
}

// PayoutMethod is an enumerated payout network/channel choice.
type PayoutMethod string

const (
	MethodUSDTBEP20   PayoutMethod = "USDT_BEP20"
	MethodUSDTTRC20   PayoutMethod = "USDT_TRC20"
	MethodUSDTPolygon PayoutMethod = "USDT_POLYGON"
	MethodUSDTTON     PayoutMethod = "USDT_TON"
	MethodUPI         PayoutMethod = "UPI"
)

// PayoutMethods lists every accepted payout method.
var PayoutMethods = []PayoutMethod{
	MethodUSDTBEP20,
	MethodUSDTTRC20,
	MethodUSDTPolygon,
	MethodUSDTTON,
	MethodUPI,
}

// Valid reports whether m is one of the accepted payout methods.
func (m PayoutMethod) Valid() bool {
	for _, known := range PayoutMethods {
		if m == known {
			return true
		}
	}
	return false
}

// RequestStatus tracks a withdraw request through owner review.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// WithdrawRequest is a payout request for a redeem code. At most one
// pending request may reference a given code at a time.
type WithdrawRequest struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	UserID     int64         `json:"user_id"`
	Amount     string        `json:"amount"`
	Method     PayoutMethod  `json:"method"`
	Address    string        `json:"address"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt time.Time     `json:"resolved_at,omitempty"`
}

// Settings is the process-wide configuration mutated only by the owner.
type Settings struct {
	RequiredBioKeyword string   `json:"required_bio_keyword"`
	PopupMessages      []string `json:"popup_messages"`
	ClaimInstructions  string   `json:"claim_instructions"`
	PrizePhotoFileID   string   `json:"prize_photo_file_id,omitempty"`
	WhitelistGroups    []int64  `json:"whitelist_groups"`
}

// Ledger is the full persisted state: a flat keyed-collection snapshot
// reloaded wholesale at startup.
type Ledger struct {
	Giveaways map[string]*Giveaway        `json:"giveaways"`
	Redeems   map[string]*RedeemCode      `json:"redeems"`
	Withdraws map[string]*WithdrawRequest `json:"withdraws"`
	Settings  *Settings                   `json:"settings"`
}

// NewLedger returns an empty ledger with default settings.
func NewLedger() *Ledger {
	return &Ledger{
		Giveaways: make(map[string]*Giveaway),
		Redeems:   make(map[string]*RedeemCode),
		Withdraws: make(map[string]*WithdrawRequest),
		Settings: &Settings{
			RequiredBioKeyword: "@TrustlyEscrow",
			PopupMessages: []string{
				"Add bio first rebel! To participate in giveaway 😒",
				"Arre bhai, bio me @TrustlyEscrow likh ke aa fir button dabana 😂",
				"Without @TrustlyEscrow bio? No entry! 🚫",
				"Rules ka respect kar bhai, pehle bio me @TrustlyEscrow daal 😏",
				"Bro, no @TrustlyEscrow = no giveaway for you 🙅‍♂️",
			},
			ClaimInstructions: "Please share your UPI/wallet address using /withdraw <CODE> or through the DM withdraw button.",
			WhitelistGroups:   []int64{},
		},
	}
}

// normalize fills nil collections after a load so callers never see nil maps.
func (l *Ledger) normalize() {
	if l.Giveaways == nil {
		l.Giveaways = make(map[string]*Giveaway)
	}
	if l.Redeems == nil {
		l.Redeems = make(map[string]*RedeemCode)
	}
	if l.Withdraws == nil {
		l.Withdraws = make(map[string]*WithdrawRequest)
	}
	if l.Settings == nil {
		l.Settings = NewLedger().Settings
	}
}
