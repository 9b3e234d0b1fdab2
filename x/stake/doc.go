/*
Package stake implements the stake escrow.

A staker locks collateral in a stake. The staker whitelists claimants, each
with a personal deadline. Before the deadline a claimant may open a claim
against the collateral. Opening a claim requires paying a fee of at least
the minimum fee of the stake. The staker matches the fee from the
collateral, so the claim reserves the claimed amount plus the fee.

The arbiter of the stake rules on claims, either by signing a ruling
directly or through the arbitration protocol. A ruled claim can be settled
by anyone. Settlement distributes the three reserved pots (the claimed
amount, the claimant's fee and the staker's matching fee) according to the
distribution table of the configuration. When a ledger transfer fails
during settlement, the failure is recorded on the claim and settlement can
be retried later.
*/
package stake
