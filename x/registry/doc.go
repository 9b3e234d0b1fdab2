/*
Package registry keeps the list of arbiters that may vote on claims of
stakes arbitrated by the arbitration protocol. Listings are loaded from the
genesis file only, there is no governance process that modifies them.
*/
package registry
