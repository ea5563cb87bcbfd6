package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var idFlag = cli.Uint64Flag{
	Name:  "id",
	Usage: "the id of the deposit",
}

var deposit = cli.Command{
	Name:  "deposit",
	Usage: "deposit an amount of an asset for an intended recipient",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "asset",
			Usage:    "the underlying asset to deposit",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to deposit, in asset units (ie. 10.5)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "recipient",
			Usage:    "the principal allowed to claim the deposit",
			Required: true,
		},
		&decimalsFlag,
	},
	Action: depositAction,
}

var claim = cli.Command{
	Name:   "claim",
	Usage:  "claim a deposit as its intended recipient",
	Flags:  []cli.Flag{&idFlag},
	Action: claimAction,
}

var recoverDeposit = cli.Command{
	Name:   "recover",
	Usage:  "recover an unclaimed deposit as its depositor once the recovery delay elapsed",
	Flags:  []cli.Flag{&idFlag},
	Action: recoverAction,
}

var depositInfo = cli.Command{
	Name:   "deposit-info",
	Usage:  "get info about a deposit",
	Flags:  []cli.Flag{&idFlag},
	Action: depositInfoAction,
}

var estimate = cli.Command{
	Name:   "estimate",
	Usage:  "estimate the current underlying value of a deposit",
	Flags:  []cli.Flag{&idFlag},
	Action: estimateAction,
}

var active = cli.Command{
	Name:  "active",
	Usage: "list the active deposits of a depositor",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "depositor",
			Usage: "the depositor, defaults to the principal",
		},
	},
	Action: activeAction,
}

var claimable = cli.Command{
	Name:  "claimable",
	Usage: "list the deposits claimable by a recipient",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "recipient",
			Usage: "the recipient, defaults to the principal",
		},
	},
	Action: claimableAction,
}

var events = cli.Command{
	Name:  "events",
	Usage: "list the emitted events starting from a sequence number",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "from",
			Usage: "the sequence number of the first event",
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "the page number",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "the page size",
			Value: 10,
		},
	},
	Action: eventsAction,
}

func depositAction(ctx *cli.Context) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}
	if err := client.requirePrincipal(); err != nil {
		return err
	}

	asset, err := parseAddress("asset", ctx.String("asset"))
	if err != nil {
		return err
	}
	recipient, err := parseAddress("recipient", ctx.String("recipient"))
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx, ctx.String("amount"))
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodPost, "/v1/deposits", map[string]string{
		"underlying": asset,
		"amount":     amount,
		"recipient":  recipient,
	}, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func claimAction(ctx *cli.Context) error {
	return transitionAction(ctx, "claim")
}

func recoverAction(ctx *cli.Context) error {
	return transitionAction(ctx, "recover")
}

func transitionAction(ctx *cli.Context, transition string) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}
	if err := client.requirePrincipal(); err != nil {
		return err
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/v1/deposits/%d/%s", id, transition)
	if _, err := client.do(http.MethodPost, path, nil, nil); err != nil {
		return err
	}

	fmt.Printf("deposit %d: %s succeeded\n", id, transition)
	return nil
}

func depositInfoAction(ctx *cli.Context) error {
	return getByIDAction(ctx, "/v1/deposits/%d")
}

func estimateAction(ctx *cli.Context) error {
	return getByIDAction(ctx, "/v1/deposits/%d/estimate")
}

func getByIDAction(ctx *cli.Context, pathFormat string) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, fmt.Sprintf(pathFormat, id), nil, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func activeAction(ctx *cli.Context) error {
	return listIDsAction(ctx, "depositor", "/v1/depositors/%s/active")
}

func claimableAction(ctx *cli.Context) error {
	return listIDsAction(ctx, "recipient", "/v1/recipients/%s/claimable")
}

func listIDsAction(ctx *cli.Context, flagName, pathFormat string) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}

	value := ctx.String(flagName)
	if len(value) <= 0 {
		value = client.principal
	}
	addr, err := parseAddress(flagName, value)
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, fmt.Sprintf(pathFormat, addr), nil, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func eventsAction(ctx *cli.Context) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, "/v1/events", nil, map[string]string{
		"from": fmt.Sprintf("%d", ctx.Uint64("from")),
		"page": fmt.Sprintf("%d", ctx.Int("page")),
		"size": fmt.Sprintf("%d", ctx.Int("size")),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
