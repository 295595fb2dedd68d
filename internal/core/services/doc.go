// Package services implements the core business logic of the sensor.
//
// Services implement the driving ports and depend only on domain types and
// driven ports. Three services cover ingestion end to end:
//
//   - ClassifierService: decides NEW/UPDATE/SUPPRESSED for a candidate by
//     comparing its content hash against the prior record, and forwards
//     accepted events to the downstream processor.
//   - WebhookService: handles one webhook delivery (normalise, classify,
//     forward). Deliveries are processed fully concurrently.
//   - BackfillService: drives single-flight reconciliation sweeps over
//     the configured repositories, owning the sync cursors.
package services
