/*
presets.go - Shipped rule and category configurations

PURPOSE:
  Two configurations ship with the engine, both expressed as data:

  advance-exchange:  the per-lifecycle-phase rule set used for the
                     advance exchange program, where claim statuses
                     map to specific carrier tracking stages.
  generic-lifecycle: the broader rule set covering generic claim
                     vocabularies (authorized/approved/shipped/...).

  They differ only in data; the engine is the same for both.

SEE ALSO:
  - config.go: Config -> Tables construction
*/
package factory

import "github.com/syncops/recon-engine/recon"

// AdvanceExchange returns the advance exchange program configuration.
func AdvanceExchange() *Config {
	return &Config{
		Version: "advance-exchange",
		Rules: map[string][]string{
			// No order expected
			"claim withdrawn":         {},
			"service cancel":          {},
			"payment pending":         {},
			"replacement unavailable": {},

			"payment received": {
				"shipment information sent to fedex",
				"picked up",
				"on the way",
			},
			"replacement request raised": {
				"shipment information sent to fedex",
			},
			"replacement authorized": {
				"shipment information sent to fedex",
				"picked up",
				"on the way",
				"departed fedex location",
			},
			"replacement allocated": {
				"shipment information sent to fedex",
				"picked up",
				"on the way",
				"departed fedex location",
				"at destination sort facility",
			},
			"replacement shipment created": {
				"picked up",
				"on the way",
				"departed fedex location",
				"at destination sort facility",
				"at fedex destination facility",
				"at local fedex facility",
			},
			"device dispatched": {
				"on the way",
				"departed fedex location",
				"at destination sort facility",
				"at fedex destination facility",
				"at local fedex facility",
				"on fedex vehicle for delivery",
			},
			"ready for collection": {
				"ready for pickup",
				"available for pickup",
			},
			"collection order created": {"delivered"},
			"defective awaited":        {"delivered"},
			"defective received":       {"delivered"},

			// Completed claims, no active monitoring
			"service completed":         {},
			"security deposit released": {},
			"security deposit charged":  {},
			"refurb request created":    {},

			"delivery exception": {
				"delivery exception",
				"delivery updated",
				"the package was refused by the receiver and will be returned to the sender",
			},
		},
		Categories: map[string][]string{
			string(recon.PhasePreProcessing): {
				"payment pending",
				"payment received",
				"replacement unavailable",
			},
			string(recon.PhaseInterfaceFailure): {
				"replacement allocated",
				"replacement shipment created",
				"device dispatched",
				"ready for collection",
			},
			string(recon.PhaseShipmentException): {
				"replacement request raised",
				"replacement authorized",
				"replacement approved",
				"delivery exception",
				"collection order created",
			},
			string(recon.PhaseReturnException): {
				"defective awaited",
			},
			string(recon.PhaseCompleted): {
				"service completed",
				"refurb request created",
				"security deposit charged",
				"security deposit released",
				"defective received",
				"claim withdrawn",
				"service cancel",
			},
		},
		EarlyStage: []string{
			"replacement request raised",
			"replacement authorized",
			"replacement approved",
			"replacement allocated",
			"replacement shipment created",
		},
		ReplacementStatuses: []string{
			"replacement request raised",
			"replacement authorized",
		},
	}
}

// GenericLifecycle returns the generic claim vocabulary configuration.
func GenericLifecycle() *Config {
	return &Config{
		Version: "generic-lifecycle",
		Rules: map[string][]string{
			// No order expected
			"cancelled":                {},
			"denied - no claim number": {},
			"duplicate claim":          {},
			"not entitled":             {},
			"not verified":             {},
			"payment pending":          {},
			"pending":                  {},
			"pending verification":     {},
			"under review":             {},
			"verification failed":      {},
			"verification pending":     {},

			"replacement authorized": {"shipment information sent to fedex", "picked up", "on the way"},
			"authorized":             {"shipment information sent to fedex", "picked up", "on the way"},
			"approved":               {"shipment information sent to fedex", "picked up", "on the way"},

			"device dispatched": {"on the way", "departed fedex location", "on fedex vehicle for delivery", "in transit"},
			"in transit":        {"on the way", "departed fedex location", "on fedex vehicle for delivery"},
			"shipped":           {"on the way", "departed fedex location", "on fedex vehicle for delivery"},

			"out for delivery": {"on fedex vehicle for delivery", "delivery updated"},
			"device delivered": {"delivered"},
			"delivered":        {"delivered"},

			"service completed": {"delivered"},
			"closed":            {"delivered"},
			"completed":         {"delivered"},

			"delivery exception": {
				"delivery exception",
				"delivery updated",
				"the package was refused by the receiver and will be returned to the sender",
			},
			"failed delivery":  {"delivery exception", "delivery updated"},
			"return to sender": {"the package was refused by the receiver and will be returned to the sender"},
		},
		Categories: map[string][]string{
			string(recon.PhasePreProcessing): {
				"payment pending",
				"pending",
				"pending verification",
				"under review",
				"verification pending",
			},
			string(recon.PhaseInterfaceFailure): {
				"device dispatched",
				"in transit",
				"shipped",
				"out for delivery",
			},
			string(recon.PhaseShipmentException): {
				"replacement authorized",
				"authorized",
				"approved",
				"delivery exception",
				"failed delivery",
				"return to sender",
			},
			string(recon.PhaseReturnException): {
				"defective awaited",
			},
			string(recon.PhaseCompleted): {
				"service completed",
				"closed",
				"completed",
				"delivered",
				"device delivered",
				"cancelled",
			},
		},
		EarlyStage: []string{
			"replacement authorized",
			"authorized",
			"approved",
		},
		ReplacementStatuses: []string{
			"replacement authorized",
			"authorized",
		},
	}
}

// DefaultClaimPatterns are the ranked column patterns for the claims
// export, most specific first.
func DefaultClaimPatterns() recon.RolePatterns {
	return recon.RolePatterns{
		ClaimID: []recon.Pattern{
			{"referenceid"}, {"reference id"},
			{"claim", "id"}, {"claim number"}, {"reference"},
			{"claim#"}, {"claimnumber"}, {"claim"}, {"id"}, {"ref"},
		},
		Status: []recon.Pattern{
			{"csr status"},
			{"status"}, {"state"}, {"claim status"},
		},
		Program: []recon.Pattern{
			{"program name"},
			{"program"}, {"programme"}, {"plan"},
		},
	}
}

// DefaultOrderPatterns are the ranked column patterns for the
// fulfillment export.
func DefaultOrderPatterns() recon.RolePatterns {
	return recon.RolePatterns{
		ClaimID: []recon.Pattern{
			{"customerpo"}, {"customer po"}, {"customer", "po"},
			{"claim", "id"}, {"claim number"}, {"reference"}, {"referenceid"},
			{"claim#"}, {"claimnumber"},
			{"order no"}, {"order number"}, {"invoice"}, {"project number"},
			{"claim"}, {"id"}, {"ref"},
		},
		Status: []recon.Pattern{
			{"delivery status"},
			{"status"}, {"state"}, {"fulfillment"}, {"order status"},
		},
	}
}
