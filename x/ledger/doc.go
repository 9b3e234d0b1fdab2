/*
Package ledger implements a minimal fungible token ledger. Balances are
kept per token ticker and address. An owner may approve a spender to move a
limited amount of its tokens, which is how the stake escrow pulls collateral
and claim fees from their owners.

New tokens are only issued from the genesis file.
*/
package ledger
