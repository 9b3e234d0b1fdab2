/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It has a primary key that is either provided by the caller or taken from
a sequence.
* It may possess one or more secondary indexes (1:1 or 1:N).

Secondary indexes are stored in a compact form: all primary keys indexed
under the same value are kept as a sorted set serialized under a single
key. Collections maintained by delphi extensions are small (claims of a
single stake, stakes of a single staker), so a whole set can be loaded at
once.
*/
package orm
