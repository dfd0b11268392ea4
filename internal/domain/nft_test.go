package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNFTMetadata_Validate(t *testing.T) {
	t.Run("valid metadata", func(t *testing.T) {
		m := NFTMetadata{Name: "Totoro", Description: "A forest spirit", Creator: "Mei"}
		assert.NoError(t, m.Validate())
	})

	t.Run("blank fields are rejected", func(t *testing.T) {
		m := NFTMetadata{Name: "   ", Description: "desc", Creator: "\t"}
		err := m.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidMetadata)
		assert.Contains(t, err.Error(), "name is required")
		assert.Contains(t, err.Error(), "creator is required")
		assert.NotContains(t, err.Error(), "description")
	})

	t.Run("name too long", func(t *testing.T) {
		m := NFTMetadata{Name: strings.Repeat("a", 65), Description: "d", Creator: "c"}
		err := m.Validate()
		assert.ErrorIs(t, err, ErrInvalidMetadata)
		assert.Contains(t, err.Error(), "at most 64")
	})
}

func TestNFTMetadata_Normalize(t *testing.T) {
	m := NFTMetadata{Name: "  Spirited ", Description: "\nbath house\n", Creator: " Chihiro"}.Normalize()
	assert.Equal(t, NFTMetadata{Name: "Spirited", Description: "bath house", Creator: "Chihiro"}, m)
}

func TestMintRequest_Validate(t *testing.T) {
	meta := NFTMetadata{Name: "n", Description: "d", Creator: "c"}

	assert.NoError(t, MintRequest{Recipient: "0xabc", Metadata: meta, TransformedImage: "https://img"}.Validate())

	err := MintRequest{Metadata: meta, TransformedImage: "https://img"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Contains(t, err.Error(), "recipient is required")

	err = MintRequest{Recipient: "0xabc", Metadata: NFTMetadata{}, TransformedImage: "x"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestCatalogs(t *testing.T) {
	s, err := FindSponsor("flowty")
	require.NoError(t, err)
	assert.Equal(t, "Flowty", s.Name)

	_, err = FindSponsor("nope")
	assert.ErrorIs(t, err, ErrUnknownSponsor)
	assert.Len(t, Sponsors(), 6)

	r, err := FindReward("credits")
	require.NoError(t, err)
	assert.Equal(t, 5, r.BonusCredits)

	_, err = FindReward("nope")
	assert.ErrorIs(t, err, ErrUnknownReward)

	list := Rewards()
	list[0].Title = "changed"
	assert.Equal(t, "Ghibli Store Discount", Rewards()[0].Title)
}

func TestEventType_Valid(t *testing.T) {
	assert.True(t, EventView.Valid())
	assert.True(t, EventConversion.Valid())
	assert.False(t, EventType("hover").Valid())
}
