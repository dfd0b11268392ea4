// Package flow is the per-session create-and-mint state machine:
// wallet, upload, loading, transform, metadata, mint, success.
package flow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/nfrund/mintari/internal/domain"
)

type State string

const (
	StateWallet    State = "wallet"
	StateUpload    State = "upload"
	StateLoading   State = "loading"
	StateTransform State = "transform"
	StateMetadata  State = "metadata"
	StateMint      State = "mint"
	StateSuccess   State = "success"
)

// DefaultCredits is the number of regenerations a new session starts with.
const DefaultCredits = 5

var (
	ErrInvalidTransition = errors.New("invalid flow transition")
	ErrNoCredits         = errors.New("no transformation credits left")
	ErrNoOriginal        = errors.New("no original image to regenerate from")
	ErrMissingAddress    = errors.New("wallet address is required")
	ErrRewardClaimed     = errors.New("reward already claimed")
)

// Flow is the serializable state of one browser session.
type Flow struct {
	SessionID        string              `json:"sessionId"`
	State            State               `json:"state"`
	WalletAddress    string              `json:"walletAddress,omitempty"`
	OriginalImage    string              `json:"originalImage,omitempty"`
	TransformedImage string              `json:"transformedImage,omitempty"`
	Metadata         *domain.NFTMetadata `json:"metadata,omitempty"`
	Credits          int                 `json:"credits"`
	MintError        string              `json:"mintError,omitempty"`
	TransactionID    string              `json:"transactionId,omitempty"`
	ClaimedRewards   []string            `json:"claimedRewards,omitempty"`
}

// New starts a flow in the wallet state. Non-positive credits use DefaultCredits.
func New(credits int) *Flow {
	if credits <= 0 {
		credits = DefaultCredits
	}
	return &Flow{
		SessionID: uuid.NewString(),
		State:     StateWallet,
		Credits:   credits,
	}
}

func (f *Flow) require(op string, states ...State) error {
	if slices.Contains(states, f.State) {
		return nil
	}
	return fmt.Errorf("%w: %s not allowed in state %s", ErrInvalidTransition, op, f.State)
}

func (f *Flow) ConnectWallet(address string) error {
	if err := f.require("connect wallet", StateWallet); err != nil {
		return err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrMissingAddress
	}
	f.WalletAddress = address
	f.State = StateUpload
	return nil
}

// BeginTransform records the uploaded original and enters loading.
func (f *Flow) BeginTransform(originalRef string) error {
	if err := f.require("begin transform", StateUpload); err != nil {
		return err
	}
	f.OriginalImage = originalRef
	f.TransformedImage = ""
	f.State = StateLoading
	return nil
}

func (f *Flow) CompleteTransform(url string) error {
	if err := f.require("complete transform", StateLoading); err != nil {
		return err
	}
	f.TransformedImage = url
	f.State = StateTransform
	return nil
}

// FailTransform leaves loading after a failed transformation: back to the
// previous result when regenerating, otherwise back to upload.
func (f *Flow) FailTransform() error {
	if err := f.require("fail transform", StateLoading); err != nil {
		return err
	}
	if f.TransformedImage != "" {
		f.State = StateTransform
		return nil
	}
	f.OriginalImage = ""
	f.State = StateUpload
	return nil
}

// Regenerate spends one credit to transform the same original again.
// The current result is kept until the new one completes.
func (f *Flow) Regenerate() error {
	if err := f.require("regenerate", StateTransform); err != nil {
		return err
	}
	if f.Credits <= 0 {
		return ErrNoCredits
	}
	if f.OriginalImage == "" {
		return ErrNoOriginal
	}
	f.Credits--
	f.State = StateLoading
	return nil
}

func (f *Flow) ConfirmMint() error {
	if err := f.require("confirm mint", StateTransform); err != nil {
		return err
	}
	f.State = StateMetadata
	return nil
}

func (f *Flow) CancelMetadata() error {
	if err := f.require("cancel metadata", StateMetadata); err != nil {
		return err
	}
	f.MintError = ""
	f.State = StateTransform
	return nil
}

// SubmitMetadata stores meta and enters mint. A previous mint error is cleared.
func (f *Flow) SubmitMetadata(meta domain.NFTMetadata) error {
	if err := f.require("submit metadata", StateMetadata); err != nil {
		return err
	}
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return err
	}
	f.Metadata = &meta
	f.MintError = ""
	f.State = StateMint
	return nil
}

func (f *Flow) MintSucceeded(txID string) error {
	if err := f.require("mint succeeded", StateMint); err != nil {
		return err
	}
	f.TransactionID = txID
	f.State = StateSuccess
	return nil
}

// MintFailed returns to metadata with the error shown; resubmitting retries.
func (f *Flow) MintFailed(cause error) error {
	if err := f.require("mint failed", StateMint); err != nil {
		return err
	}
	f.MintError = "Unknown error"
	if cause != nil {
		f.MintError = cause.Error()
	}
	f.State = StateMetadata
	return nil
}

// ClaimReward marks a reward as claimed and applies its bonus credits.
func (f *Flow) ClaimReward(id string) (domain.Reward, error) {
	if err := f.require("claim reward", StateSuccess); err != nil {
		return domain.Reward{}, err
	}
	reward, err := domain.FindReward(id)
	if err != nil {
		return domain.Reward{}, err
	}
	if slices.Contains(f.ClaimedRewards, id) {
		return domain.Reward{}, ErrRewardClaimed
	}
	f.ClaimedRewards = append(f.ClaimedRewards, id)
	f.Credits += reward.BonusCredits
	return reward, nil
}

// CreateAnother starts over with the same wallet and credits.
func (f *Flow) CreateAnother() error {
	if err := f.require("create another", StateSuccess); err != nil {
		return err
	}
	f.clearArtwork()
	f.State = StateUpload
	return nil
}

// Disconnect resets everything except the session id and credits.
func (f *Flow) Disconnect() {
	f.clearArtwork()
	f.WalletAddress = ""
	f.ClaimedRewards = nil
	f.State = StateWallet
}

func (f *Flow) clearArtwork() {
	f.OriginalImage = ""
	f.TransformedImage = ""
	f.Metadata = nil
	f.MintError = ""
	f.TransactionID = ""
}

// Step maps the state onto the three-step progress indicator.
func (f *Flow) Step() int {
	switch f.State {
	case StateLoading, StateTransform, StateMetadata:
		return 2
	case StateMint, StateSuccess:
		return 3
	default:
		return 1
	}
}
