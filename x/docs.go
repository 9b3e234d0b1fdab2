/*
Package x contains the helpers shared by all delphi extensions.

Extensions never inspect signatures directly. They receive an Authenticator
in their constructor and ask it whether an address authorized the current
transaction. This allows the arbitration protocol to act with its own
condition when it writes a ruling into a claim, while every other caller must
present a signature.

The package also provides overflow safe arithmetic for token amounts.
*/
package x
