package ipfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const (
	pinataEndpoint      = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	pinataGateway       = "https://gateway.pinata.cloud/ipfs/"
	web3StorageEndpoint = "https://api.web3.storage/upload"
	web3StorageGateway  = "https://w3s.link/ipfs/"
	nftStorageEndpoint  = "https://api.nft.storage/upload"
	nftStorageGateway   = "https://nftstorage.link/ipfs/"
)

// PinningService covers the IPFS pinning APIs. They differ only in endpoint,
// auth headers and where the content hash sits in the JSON response.
type PinningService struct {
	name       string
	endpoint   string
	gateway    string
	hashPath   string
	headers    map[string]string
	configured bool
	client     *http.Client
}

var _ Provider = (*PinningService)(nil)

func (p *PinningService) Name() string     { return p.name }
func (p *PinningService) Configured() bool { return p.configured }

func (p *PinningService) Upload(ctx context.Context, f File) (Result, error) {
	if !p.configured {
		return Result{}, fmt.Errorf("%s %w", p.name, ErrNotConfigured)
	}

	body, err := postMultipart(ctx, p.client, p.name, p.endpoint, p.headers, f)
	if err != nil {
		return Result{}, err
	}

	hash := gjson.GetBytes(body, p.hashPath).String()
	if hash == "" {
		return Result{}, errors.New(p.name + " upload failed: no content hash in response")
	}
	return Result{
		URL:         p.gateway + hash,
		Hash:        hash,
		Provider:    p.name,
		Size:        int64(len(f.Data)),
		ContentType: f.contentType(),
	}, nil
}

// NewPinata pins files through Pinata using an API key pair.
func NewPinata(apiKey, secretKey string) *PinningService {
	return &PinningService{
		name:     "Pinata",
		endpoint: pinataEndpoint,
		gateway:  pinataGateway,
		hashPath: "IpfsHash",
		headers: map[string]string{
			"pinata_api_key":        apiKey,
			"pinata_secret_api_key": secretKey,
		},
		configured: apiKey != "" && secretKey != "",
		client:     newHTTPClient(),
	}
}

// NewWeb3Storage uploads through web3.storage with a bearer token.
func NewWeb3Storage(token string) *PinningService {
	return &PinningService{
		name:       "Web3Storage",
		endpoint:   web3StorageEndpoint,
		gateway:    web3StorageGateway,
		hashPath:   "cid",
		headers:    map[string]string{"Authorization": "Bearer " + token},
		configured: token != "",
		client:     newHTTPClient(),
	}
}

// NewNFTStorage uploads through nft.storage with a bearer token.
func NewNFTStorage(token string) *PinningService {
	return &PinningService{
		name:       "NFTStorage",
		endpoint:   nftStorageEndpoint,
		gateway:    nftStorageGateway,
		hashPath:   "value.cid",
		headers:    map[string]string{"Authorization": "Bearer " + token},
		configured: token != "",
		client:     newHTTPClient(),
	}
}
