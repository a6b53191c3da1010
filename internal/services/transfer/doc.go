/*
Package transfer executes point-to-point balance transfers.

A transfer runs these steps, each one able to end the call with an Outcome:

  - look up the idempotency key in the transfer log; a hit is SUCCESSFUL
    with MessageAlreadyProcessed and has no side effects
  - resolve the sender, then the recipient
  - under the sender's lock: check funds, then debit, credit and record the
    transfer as one unit through AccountRepository.AtomicTransfer
  - after releasing the lock, hand the "funds received" event to the Notifier

Usage:

	svc := transfer.NewService(accounts, transfers, notifier, transfer.Config{}, metrics, logger)
	outcome, err := svc.Transfer(ctx, transfer.Command{
	    SenderID:       "user1",
	    RecipientID:    "user2",
	    Amount:         decimal.RequireFromString("100.00"),
	    IdempotencyKey: "a1b2c3d4",
	})

Error Handling:

Business-rule failures never surface as errors. A returned error is a
backend fault (store unavailable, timeout) and is safe to retry with the same
command; the resilience package wraps Service to do exactly that.

Concurrency:

Transfers debiting the same sender are serialized by a KeyedMutex keyed on
the sender id, held only around the funds check and the atomic mutation.
Transfers from different senders run in parallel; their credits to a shared
recipient are applied inside AtomicTransfer, never as a separate
read-modify-write.
*/
package transfer
