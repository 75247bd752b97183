// internal/i18n/keys.go
package i18n

// Translation keys. The catalog falls back to the English defaults below when
// no locale file overrides a key.
const (
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAccessDenied     = "auth.access_denied"

	KeyValidationInvalid = "validation.invalid"

	KeyProposalNotFound      = "proposal.not_found"
	KeyProposalCreated       = "proposal.created"
	KeyProposalUpdated       = "proposal.updated"
	KeyProposalCloned        = "proposal.cloned"
	KeyProposalSubmitted     = "proposal.submitted"
	KeyProposalAccepted      = "proposal.accepted"
	KeyProposalRejected      = "proposal.rejected"
	KeyProposalHasConflicts  = "proposal.has_conflicts"
	KeyProposalIllegalStatus = "proposal.illegal_transition"

	KeyContractNotFound      = "contract.not_found"
	KeyContractSuspended     = "contract.suspended"
	KeyContractVersionAdded  = "contract.version_added"
	KeyContractVersionCloned = "contract.version_cloned"
)

var defaults = map[string]string{
	KeyAuthRequired:     "Authentication required",
	KeyAuthInvalidToken: "Invalid authentication token",
	KeyAuthTokenExpired: "Authentication token expired",
	KeyAccessDenied:     "Access denied",

	KeyValidationInvalid: "Invalid %s",

	KeyProposalNotFound:      "Proposal not found",
	KeyProposalCreated:       "Proposal created",
	KeyProposalUpdated:       "Proposal updated",
	KeyProposalCloned:        "Proposal cloned",
	KeyProposalSubmitted:     "Proposal submitted",
	KeyProposalAccepted:      "Proposal accepted and awarded",
	KeyProposalRejected:      "Proposal rejected",
	KeyProposalHasConflicts:  "Proposal has pricing conflicts with active contracts",
	KeyProposalIllegalStatus: "Operation is not allowed in the proposal's current status",

	KeyContractNotFound:      "Contract not found",
	KeyContractSuspended:     "Contract suspended",
	KeyContractVersionAdded:  "Contract version created",
	KeyContractVersionCloned: "Contract version cloned",
}
