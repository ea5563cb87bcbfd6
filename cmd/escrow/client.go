package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/escrowd/pkg/mathutil"
	"github.com/urfave/cli/v2"
)

const (
	principalHeader = "X-Escrow-Principal"
	requestTimeout  = 30 * time.Second
)

type errorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type client struct {
	rest      *resty.Client
	principal string
}

func getClient(ctx *cli.Context) (*client, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	host, ok := state["rpcserver"]
	if !ok || len(host) <= 0 {
		return nil, errors.New("set daemon url with `config set rpcserver`")
	}

	principal := ctx.String("principal")
	if len(principal) <= 0 {
		principal = state["principal"]
	}

	return newClient(host, principal), nil
}

func newClient(host, principal string) *client {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(host, "/")).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
	return &client{rest, principal}
}

// do sends the request and returns the raw response body. Error responses
// are turned into errors carrying the code returned by the daemon.
func (c *client) do(
	method, path string, body interface{}, query map[string]string,
) ([]byte, error) {
	req := c.rest.R().SetQueryParams(query)
	if len(c.principal) > 0 {
		req.SetHeader(principalHeader, c.principal)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		var errResp errorResponse
		if err := json.Unmarshal(resp.Body(), &errResp); err != nil ||
			len(errResp.Code) <= 0 {
			return nil, fmt.Errorf("request failed with status %s", resp.Status())
		}
		if errResp.Retryable {
			return nil, fmt.Errorf("%s: %s (retryable)", errResp.Code, errResp.Error)
		}
		return nil, fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
	}
	return resp.Body(), nil
}

func (c *client) requirePrincipal() error {
	if len(c.principal) <= 0 {
		return errors.New(
			"missing principal, use --principal or `config set principal`",
		)
	}
	return nil
}

// parseAmount converts the given amount expressed in asset units into the
// smallest unit, according to the given flag or the decimals in local state.
func parseAmount(ctx *cli.Context, value string) (string, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", value)
	}

	decimals := ctx.Int("decimals")
	if !ctx.IsSet("decimals") {
		if state, err := getState(); err == nil {
			if d, err := strconv.Atoi(state["decimals"]); err == nil {
				decimals = d
			}
		}
	}

	units, err := mathutil.ToUnits(amount, int32(decimals))
	if err != nil {
		return "", err
	}
	return units.String(), nil
}

func parseAddress(name, value string) (string, error) {
	if !common.IsHexAddress(value) {
		return "", fmt.Errorf("invalid %s address %q", name, value)
	}
	return common.HexToAddress(value).Hex(), nil
}

func parseID(ctx *cli.Context) (uint64, error) {
	if !ctx.IsSet("id") {
		return 0, errors.New("missing deposit id")
	}
	return ctx.Uint64("id"), nil
}
