package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var policy = cli.Command{
	Name:   "policy",
	Usage:  "get the admin policy in force",
	Action: policyAction,
}

var whitelist = cli.Command{
	Name:  "whitelist",
	Usage: "allow or deny a principal to claim when the whitelist is enabled",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the principal to update",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "deny",
			Usage: "remove the principal from the whitelist",
		},
	},
	Action: whitelistAction,
}

var whitelistStatus = cli.Command{
	Name:  "whitelist-status",
	Usage: "enable or disable the claim whitelist",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "enabled",
			Usage: "whether the whitelist is enforced",
		},
	},
	Action: whitelistStatusAction,
}

var recoveryDelay = cli.Command{
	Name:  "recovery-delay",
	Usage: "update the delay after which depositors can recover unclaimed deposits",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:     "delay",
			Usage:    "the recovery delay (ie. 72h)",
			Required: true,
		},
	},
	Action: recoveryDelayAction,
}

var delegate = cli.Command{
	Name:  "delegate",
	Usage: "change the default yield delegate",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "ref",
			Usage:    "the name of a registered delegate",
			Required: true,
		},
	},
	Action: delegateAction,
}

var configSource = cli.Command{
	Name:  "config-source",
	Usage: "change the config source used to resolve assets and bindings",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "ref",
			Usage:    "the name of a registered config source",
			Required: true,
		},
	},
	Action: configSourceAction,
}

var transferOwnership = cli.Command{
	Name:  "transfer-ownership",
	Usage: "hand the admin policy over to a new owner",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "new-owner",
			Usage:    "the new owner",
			Required: true,
		},
	},
	Action: transferOwnershipAction,
}

func policyAction(ctx *cli.Context) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}

	resp, err := client.do(http.MethodGet, "/v1/admin/policy", nil, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func whitelistAction(ctx *cli.Context) error {
	principal, err := parseAddress("principal", ctx.String("address"))
	if err != nil {
		return err
	}
	return adminAction(ctx, "whitelist", map[string]interface{}{
		"principal": principal,
		"allowed":   !ctx.Bool("deny"),
	})
}

func whitelistStatusAction(ctx *cli.Context) error {
	return adminAction(ctx, "whitelist-status", map[string]interface{}{
		"enabled": ctx.Bool("enabled"),
	})
}

func recoveryDelayAction(ctx *cli.Context) error {
	delay := ctx.Duration("delay")
	if delay < 0 {
		return fmt.Errorf("recovery delay must not be negative")
	}
	return adminAction(ctx, "recovery-delay", map[string]interface{}{
		"seconds": int64(delay.Seconds()),
	})
}

func delegateAction(ctx *cli.Context) error {
	return adminAction(ctx, "delegate", map[string]interface{}{
		"ref": ctx.String("ref"),
	})
}

func configSourceAction(ctx *cli.Context) error {
	return adminAction(ctx, "config-source", map[string]interface{}{
		"ref": ctx.String("ref"),
	})
}

func transferOwnershipAction(ctx *cli.Context) error {
	newOwner, err := parseAddress("new owner", ctx.String("new-owner"))
	if err != nil {
		return err
	}
	return adminAction(ctx, "owner", map[string]interface{}{
		"new_owner": newOwner,
	})
}

func adminAction(
	ctx *cli.Context, setting string, body map[string]interface{},
) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}
	if err := client.requirePrincipal(); err != nil {
		return err
	}

	resp, err := client.do(http.MethodPost, "/v1/admin/"+setting, body, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
