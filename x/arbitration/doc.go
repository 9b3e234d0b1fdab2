/*
Package arbitration implements commit-reveal voting on stake claims.

Eligible arbiters vote on a claim in two stages. During the commit stage
each voter submits the hash of the vote and a secret salt. During the
reveal stage voters publish the vote and the salt. A reveal is counted only
if it hashes to the stored commitment. Stages end lazily: the block time of
each call is compared against the stored deadlines.

Once the reveal stage is over the poll can be resolved by anyone. The option
with the strictly highest number of revealed votes becomes the ruling. Ties
resolve to the configured tie ruling. The ruling is delivered to the stake
extension as a RuleOnClaimMsg authorized by the protocol condition.
*/
package arbitration
