package explorer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Etherscan v2 multichain endpoint.
const DefaultBaseURL = "https://api.etherscan.io/v2/api"

// ErrABINotFound is returned when the explorer has no verified interface.
var ErrABINotFound = errors.New("abi not found")

// Client fetches verified contract interfaces from an explorer API.
type Client struct {
	http   *resty.Client
	apiKey string
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// NewClient builds an explorer client for baseURL.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == 429 || resp.StatusCode() >= 500
		})

	return &Client{http: http, apiKey: apiKey}
}

// GetABI returns the raw interface JSON for a contract address.
func (c *Client) GetABI(ctx context.Context, chainID uint64, address common.Address) (string, error) {
	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chainid": strconv.FormatUint(chainID, 10),
			"module":  "contract",
			"action":  "getabi",
			"address": address.Hex(),
			"apikey":  c.apiKey,
		}).
		SetResult(&out).
		Get("")
	if err != nil {
		return "", fmt.Errorf("getabi %s: %w", address.Hex(), err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("getabi %s: http status %d", address.Hex(), resp.StatusCode())
	}
	if out.Status != "1" {
		return "", fmt.Errorf("%w: %s: %s", ErrABINotFound, address.Hex(), out.Result)
	}
	return out.Result, nil
}
