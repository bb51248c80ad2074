// Package mailer turns tenant aggregates into notification emails and
// delivers them over SMTP.
//
// # Contract
//
//   - Compose produces exactly one Email per tenant aggregate, summarizing
//     every workload and every retained event. The subject counts
//     workloads, not events.
//   - Senders are synchronous from the caller's point of view: Send
//     returns the delivery outcome. SMTPSender runs the actual relay
//     session on a single background worker so a hung relay never blocks
//     the caller past its context.
//   - With send_emails_for_real off, SMTPSender logs the email instead of
//     delivering it and reports success.
//   - Delivery failures are terminal for that email. There is no retry
//     and no dead-letter queue.
package mailer
