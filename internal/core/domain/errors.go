package domain

import "errors"

// Deposit errors
var (
	// ErrInvalidAsset is returned if the underlying asset is null or cannot be
	// mapped to an asset key and a yield delegate binding.
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrInvalidAmount is returned if the deposited amount is not positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInvalidPrincipal is returned if a depositor, recipient or caller is the
	// null address.
	ErrInvalidPrincipal = errors.New("invalid principal")
	// ErrDepositNotFound ...
	ErrDepositNotFound = errors.New("deposit not found")
	// ErrDepositAlreadyUsed is returned when trying to claim or recover a
	// deposit that has already been claimed or recovered.
	ErrDepositAlreadyUsed = errors.New("deposit already claimed or recovered")
	// ErrRecoveryNotAvailable is returned if the recovery delay has not elapsed
	// yet since the deposit creation.
	ErrRecoveryNotAvailable = errors.New("recovery not available yet")
	// ErrNotWhitelisted ...
	ErrNotWhitelisted = errors.New("recipient is not whitelisted")
	// ErrNotIntendedRecipient ...
	ErrNotIntendedRecipient = errors.New("caller is not the intended recipient")
	// ErrNotDepositor ...
	ErrNotDepositor = errors.New("caller is not the depositor")
	// ErrYieldAssetNotFound is returned if the yield delegate cannot tell which
	// yield-bearing asset it mints for the underlying one.
	ErrYieldAssetNotFound = errors.New("yield asset not found")
	// ErrNoYieldReceived is returned if the vault's yield asset balance did not
	// increase after supplying the underlying to the strategy.
	ErrNoYieldReceived = errors.New("no yield asset received")
	// ErrSupplyFailed is returned if the yield delegate failed to supply the
	// underlying to the strategy.
	ErrSupplyFailed = errors.New("supply to yield strategy failed")
	// ErrReentrantCall is returned if a mutating operation is invoked from
	// within an operation still in flight.
	ErrReentrantCall = errors.New("reentrant call")
)

// Policy errors
var (
	// ErrNotOwner ...
	ErrNotOwner = errors.New("caller is not the owner")
	// ErrPolicyNotFound is returned if the policy has not been initialized.
	ErrPolicyNotFound = errors.New("policy not found")
	// ErrInvalidRecoveryDelay ...
	ErrInvalidRecoveryDelay = errors.New("recovery delay must not be negative")
	// ErrUnknownDelegate is returned if a delegate reference is not registered.
	ErrUnknownDelegate = errors.New("unknown yield delegate")
	// ErrUnknownConfigSource is returned if a config source reference is not
	// registered.
	ErrUnknownConfigSource = errors.New("unknown config source")
)

// Error kinds returned by ErrorKind.
const (
	KindInvalidAsset         = "INVALID_ASSET"
	KindInvalidAmount        = "INVALID_AMOUNT"
	KindInvalidPrincipal     = "INVALID_PRINCIPAL"
	KindNotFound             = "NOT_FOUND"
	KindAlreadyUsed          = "ALREADY_USED"
	KindRecoveryNotAvailable = "RECOVERY_NOT_AVAILABLE"
	KindNotWhitelisted       = "NOT_WHITELISTED"
	KindNotIntendedRecipient = "NOT_INTENDED_RECIPIENT"
	KindNotDepositor         = "NOT_DEPOSITOR"
	KindYieldAssetNotFound   = "YIELD_ASSET_NOT_FOUND"
	KindNoYieldReceived      = "NO_YIELD_RECEIVED"
	KindSupplyFailed         = "SUPPLY_FAILED"
	KindReentrantCall        = "REENTRANT_CALL"
	KindNotOwner             = "NOT_OWNER"
	KindInvalidRecoveryDelay = "INVALID_RECOVERY_DELAY"
	KindUnknownDelegate      = "UNKNOWN_DELEGATE"
	KindUnknownConfigSource  = "UNKNOWN_CONFIG_SOURCE"
	KindPolicyNotInitialized = "POLICY_NOT_INITIALIZED"
	KindInternal             = "INTERNAL"
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAsset, KindInvalidAsset},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInvalidPrincipal, KindInvalidPrincipal},
	{ErrDepositNotFound, KindNotFound},
	{ErrDepositAlreadyUsed, KindAlreadyUsed},
	{ErrRecoveryNotAvailable, KindRecoveryNotAvailable},
	{ErrNotWhitelisted, KindNotWhitelisted},
	{ErrNotIntendedRecipient, KindNotIntendedRecipient},
	{ErrNotDepositor, KindNotDepositor},
	{ErrYieldAssetNotFound, KindYieldAssetNotFound},
	{ErrNoYieldReceived, KindNoYieldReceived},
	{ErrSupplyFailed, KindSupplyFailed},
	{ErrReentrantCall, KindReentrantCall},
	{ErrNotOwner, KindNotOwner},
	{ErrInvalidRecoveryDelay, KindInvalidRecoveryDelay},
	{ErrUnknownDelegate, KindUnknownDelegate},
	{ErrUnknownConfigSource, KindUnknownConfigSource},
	{ErrPolicyNotFound, KindPolicyNotInitialized},
}

// ErrorKind returns the stable kind of the given error, or KindInternal if it
// is not one of the errors of this package.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable returns whether the operation that failed with the given error
// might succeed if retried with the very same arguments.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch ErrorKind(err) {
	case KindSupplyFailed, KindNoYieldReceived, KindRecoveryNotAvailable,
		KindReentrantCall, KindInternal:
		return true
	default:
		return false
	}
}
