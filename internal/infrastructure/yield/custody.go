// Package yield groups the sandbox yield protocols and the delegates that
// know how to supply to them.
package yield

import "github.com/tdex-network/escrowd/internal/core/ports"

// Custody is the token ledger the sandbox protocols settle on. They need to
// mint and burn their receipt tokens.
type Custody interface {
	ports.Custody
	ports.Minter
}
