package domain

// EventType classifies a sponsor interaction.
type EventType string

const (
	EventView       EventType = "view"
	EventClick      EventType = "click"
	EventClose      EventType = "close"
	EventConversion EventType = "conversion"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventView, EventClick, EventClose, EventConversion:
		return true
	}
	return false
}

// SponsorEvent is one recorded interaction with a sponsor offer.
// Timestamp is in unix milliseconds.
type SponsorEvent struct {
	SponsorID        string         `json:"sponsorId"`
	SponsorName      string         `json:"sponsorName"`
	EventType        EventType      `json:"eventType"`
	Timestamp        int64          `json:"timestamp"`
	UserAddress      string         `json:"userAddress,omitempty"`
	NFTTransactionID string         `json:"nftTransactionId,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Sponsor is a partner offer shown after a successful mint.
type Sponsor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	Description string `json:"description"`
	Offer       string `json:"offer"`
	CTA         string `json:"cta"`
	URL         string `json:"url"`
	Badge       string `json:"badge,omitempty"`
}

var sponsors = []Sponsor{
	{ID: "poap", Name: "POAP", Logo: "🏆", Description: "Proof of Attendance Protocol", Offer: "Claim your exclusive Ghibli Creator POAP", CTA: "Claim POAP", URL: "https://poap.xyz", Badge: "Limited Edition"},
	{ID: "nba-topshot", Name: "NBA Top Shot", Logo: "🏀", Description: "Official NBA Digital Collectibles", Offer: "Get 20% off your first NBA Top Shot pack", CTA: "Shop NBA", URL: "https://nbatopshot.com", Badge: "Exclusive"},
	{ID: "pinnacle", Name: "Pinnacle", Logo: "⚽", Description: "Premier Football NFTs", Offer: "Free starter pack for new collectors", CTA: "Get Pack", URL: "https://pinnacle.xyz", Badge: "Free"},
	{ID: "flowty", Name: "Flowty", Logo: "💎", Description: "Flow NFT Marketplace", Offer: "Zero fees on your first NFT sale", CTA: "List NFT", URL: "https://flowty.io", Badge: "0% Fees"},
	{ID: "matrix-world", Name: "Matrix World", Logo: "🌐", Description: "Virtual World on Flow", Offer: "Free land plot for NFT creators", CTA: "Claim Land", URL: "https://matrixworld.org", Badge: "Creator Bonus"},
	{ID: "flovatar", Name: "Flovatar", Logo: "👤", Description: "Flow Avatar NFTs", Offer: "Create your Flow avatar with 50% off", CTA: "Create Avatar", URL: "https://flovatar.com", Badge: "50% Off"},
}

// Sponsors returns a copy of the sponsor catalog in display order.
func Sponsors() []Sponsor {
	out := make([]Sponsor, len(sponsors))
	copy(out, sponsors)
	return out
}

// FindSponsor looks a sponsor up by id.
func FindSponsor(id string) (Sponsor, error) {
	for _, s := range sponsors {
		if s.ID == id {
			return s, nil
		}
	}
	return Sponsor{}, ErrUnknownSponsor
}

// Reward is a perk offered on the success screen.
type Reward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Action      string `json:"action"`
	ActionURL   string `json:"actionUrl,omitempty"`
	// BonusCredits is added to the session's transformation credits on claim.
	BonusCredits int `json:"bonusCredits,omitempty"`
}

var rewards = []Reward{
	{ID: "discount", Title: "Ghibli Store Discount", Description: "15% off official merchandise", Value: "15% OFF", Action: "Claim Now", ActionURL: "https://ghibli.jp/store"},
	{ID: "wallpapers", Title: "Exclusive Wallpapers", Description: "HD wallpaper collection", Value: "12 Images", Action: "Download", ActionURL: "#"},
	{ID: "credits", Title: "Bonus Credits", Description: "Extra transformation credits", Value: "+5 Credits", Action: "Add to Account", BonusCredits: 5},
	{ID: "print", Title: "Physical Print", Description: "Free premium print (limited time)", Value: "FREE", Action: "Order Print", ActionURL: "#"},
}

// Rewards returns a copy of the reward catalog.
func Rewards() []Reward {
	out := make([]Reward, len(rewards))
	copy(out, rewards)
	return out
}

// FindReward looks a reward up by id.
func FindReward(id string) (Reward, error) {
	for _, r := range rewards {
		if r.ID == id {
			return r, nil
		}
	}
	return Reward{}, ErrUnknownReward
}
