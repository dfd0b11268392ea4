package mint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"github.com/nfrund/mintari/internal/domain"
)

// Metaplex field limits.
const (
	maxNameLen   = 32
	maxSymbolLen = 10
	maxURILen    = 200
)

// solanaRPC is the subset of the blocto client the minter uses.
type solanaRPC interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
}

// SolanaMinter mints one-of-one Metaplex NFTs signed by a mint authority
// that also pays fees.
type SolanaMinter struct {
	rpc          solanaRPC
	authority    types.Account
	symbol       string
	sellerFeeBps uint16
}

var _ Minter = (*SolanaMinter)(nil)

// NewSolanaMinter connects to rpcURL (devnet when empty). keypairJSON is the
// authority secret key as a JSON array of 64 byte values, the format written
// by solana-keygen.
func NewSolanaMinter(rpcURL, keypairJSON, symbol string, sellerFeeBps uint16) (*SolanaMinter, error) {
	if rpcURL == "" {
		rpcURL = rpc.DevnetRPCEndpoint
	}
	auth, err := ParseKeypair(keypairJSON)
	if err != nil {
		return nil, err
	}
	return &SolanaMinter{
		rpc:          client.NewClient(rpcURL),
		authority:    auth,
		symbol:       truncate(symbol, maxSymbolLen),
		sellerFeeBps: sellerFeeBps,
	}, nil
}

// ParseKeypair decodes a solana-keygen JSON secret key.
func ParseKeypair(keypairJSON string) (types.Account, error) {
	s := strings.TrimSpace(keypairJSON)
	if s == "" {
		return types.Account{}, errors.New("mint authority keypair is empty")
	}
	var ints []int
	if err := json.Unmarshal([]byte(s), &ints); err != nil {
		return types.Account{}, fmt.Errorf("mint authority keypair is not a json int array: %w", err)
	}
	if len(ints) != 64 {
		return types.Account{}, fmt.Errorf("mint authority keypair: want 64 bytes, got %d", len(ints))
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("mint authority keypair: byte out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}
	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("mint authority keypair: %w", err)
	}
	return acc, nil
}

// ValidateAddress checks that s is a base58 encoded 32 byte public key.
func ValidateAddress(s string) error {
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil || len(b) != 32 {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, s)
	}
	return nil
}

// Authority returns the base58 public key of the mint authority.
func (m *SolanaMinter) Authority() string {
	return m.authority.PublicKey.ToBase58()
}

// CheckCollection needs no on-chain state on Solana: the recipient's token
// account is created inside the mint transaction.
func (m *SolanaMinter) CheckCollection(ctx context.Context, address string) (bool, error) {
	if err := ValidateAddress(address); err != nil {
		return false, err
	}
	return true, nil
}

// SetupCollection is never needed on Solana and returns an empty tx id.
func (m *SolanaMinter) SetupCollection(ctx context.Context, address string) (string, error) {
	return "", ValidateAddress(address)
}

func (m *SolanaMinter) Mint(ctx context.Context, req domain.MintRequest) (Result, error) {
	if err := ValidateAddress(req.Recipient); err != nil {
		return Result{}, err
	}
	uri := req.MetadataURI
	if uri == "" {
		uri = req.TransformedImage
	}
	if len(uri) > maxURILen {
		return Result{}, fmt.Errorf("%w: metadata uri longer than %d characters", ErrMintFailed, maxURILen)
	}

	mintAddr, sig, err := m.mintTo(ctx, common.PublicKeyFromString(req.Recipient), truncate(req.Metadata.Name, maxNameLen), uri)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMintFailed, err)
	}
	slog.InfoContext(ctx, "Minted NFT on Solana", "mint", mintAddr, "signature", sig, "recipient", req.Recipient)
	return Result{TransactionID: sig, Status: StatusPending, MintAddress: mintAddr}, nil
}

// mintTo creates a new mint with metadata and a master edition (max supply
// 1) and mints the single token to owner.
func (m *SolanaMinter) mintTo(ctx context.Context, owner common.PublicKey, name, uri string) (string, string, error) {
	feePayer := m.authority
	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("find associated token address: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("derive metadata account: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("derive master edition: %w", err)
	}

	mintRent, err := m.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", "", fmt.Errorf("get rent exemption: %w", err)
	}
	recent, err := m.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get latest blockhash: %w", err)
	}

	maxSupply := uint64(1)
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{mint, feePayer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     feePayer.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   feePayer.PublicKey,
					FreezeAuth: &feePayer.PublicKey,
				}),
				token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
					Metadata:                metadataPubkey,
					Mint:                    mint.PublicKey,
					MintAuthority:           feePayer.PublicKey,
					UpdateAuthority:         feePayer.PublicKey,
					Payer:                   feePayer.PublicKey,
					UpdateAuthorityIsSigner: true,
					IsMutable:               true,
					Data: token_metadata.DataV2{
						Name:                 name,
						Symbol:               m.symbol,
						Uri:                  uri,
						SellerFeeBasisPoints: m.sellerFeeBps,
						Creators: &[]token_metadata.Creator{
							{Address: feePayer.PublicKey, Verified: true, Share: 100},
						},
					},
				}),
				associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 feePayer.PublicKey,
					Owner:                  owner,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				}),
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   feePayer.PublicKey,
					Amount: 1,
				}),
				token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
					Edition:         masterEditionPubkey,
					Mint:            mint.PublicKey,
					UpdateAuthority: feePayer.PublicKey,
					MintAuthority:   feePayer.PublicKey,
					Metadata:        metadataPubkey,
					Payer:           feePayer.PublicKey,
					MaxSupply:       &maxSupply,
				}),
			},
		}),
	})
	if err != nil {
		return "", "", fmt.Errorf("build transaction: %w", err)
	}

	sig, err := m.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", "", fmt.Errorf("send transaction: %w", err)
	}
	return mint.PublicKey.ToBase58(), sig, nil
}

// accountExists treats RPC "not found" style errors and empty accounts as
// missing.
func (m *SolanaMinter) accountExists(ctx context.Context, address string) (bool, error) {
	info, err := m.rpc.GetAccountInfo(ctx, address)
	if err == nil {
		return info.Lamports > 0, nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist") {
		return false, nil
	}
	return false, err
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary.
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}
